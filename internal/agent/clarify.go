package agent

import (
	"strings"

	"silverland-assistant/internal/model"
)

// clarifyPrefs asks for the key preferences still missing: city, unit size
// or bedrooms, and maximum budget, in that order. No external calls.
func (a *Agent) clarifyPrefs(st *model.AgentState) {
	p := st.BuyerProfile
	var questions []string

	if p.City == nil {
		questions = append(questions, "Which city are you looking to buy in?")
	}
	if p.UnitSize == nil && p.Bedrooms == nil {
		questions = append(questions, "What unit size are you interested in (e.g., 1BHK, 2BHK, 3BHK)?")
	}
	if p.BudgetMax == nil {
		questions = append(questions, "What is your approximate maximum budget (in USD)?")
	}

	text := "Could you please confirm your city, preferred unit size, and budget range?"
	if len(questions) > 0 {
		text = strings.Join(questions, " ")
	}

	st.AppendAssistant(text)
	st.Stage = model.StageAskingPrefs
}

package agent

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"silverland-assistant/internal/model"
)

// matchProjects searches the catalog with the current profile and replaces
// the candidate shortlist. The reply is a 1-based numbered list matching
// the new shortlist order.
func (a *Agent) matchProjects(ctx context.Context, st *model.AgentState) error {
	projects, err := a.catalog.SearchByProfile(ctx, st.BuyerProfile)
	if err != nil {
		return fmt.Errorf("project search: %w", err)
	}

	st.CandidateProjects = projects
	st.Stage = model.StageRecommendations

	if len(projects) == 0 {
		st.AppendAssistant(
			"I couldn't find an exact match for your preferences. " +
				"I can suggest nearby locations or slightly different budgets if you'd like.")
		return nil
	}

	lines := []string{"Here are some projects matching your preferences:"}
	for i, p := range projects {
		unit := "unit"
		if p.UnitType != nil {
			unit = *p.UnitType
		}
		lines = append(lines, fmt.Sprintf("%d. %s in %s, %s - approx. price: %s (%s)",
			i+1, p.Name, p.City, p.Country, formatPriceUSD(p.PriceUSD), unit))
	}
	lines = append(lines, "Would you like to know more about any of these, or book a property visit?")

	st.AppendAssistant(strings.Join(lines, "\n"))
	return nil
}

// formatPriceUSD renders a catalog price as "280,000 USD", or "Price on
// request" for unknown prices.
func formatPriceUSD(price *float64) string {
	if price == nil || *price == 0 {
		return "Price on request"
	}
	return groupThousands(int64(math.Round(*price))) + " USD"
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

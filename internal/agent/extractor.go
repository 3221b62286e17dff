package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"

	"silverland-assistant/internal/llm"
	"silverland-assistant/internal/model"
	"silverland-assistant/internal/utils"

	"go.uber.org/zap"
)

// promptKind tags the three structured-extraction call sites that share one
// completion-plus-JSON-recovery path.
type promptKind int

const (
	promptIntent promptKind = iota
	promptSelection
	promptBooking
)

func (k promptKind) systemPrompt() string {
	switch k {
	case promptSelection:
		return selectionSystemPrompt
	case promptBooking:
		return bookingSystemPrompt
	default:
		return intentSystemPrompt
	}
}

// Extractor turns free-text user messages into structured results via
// single completion calls with a strict JSON output contract.
type Extractor struct {
	chat llm.ChatClient
	log  *zap.Logger
}

// NewExtractor creates an extractor on top of a completion client.
func NewExtractor(chat llm.ChatClient, log *zap.Logger) *Extractor {
	return &Extractor{chat: chat, log: log}
}

// extractObject performs one completion call for the given prompt kind and
// recovers a JSON object from the reply. A malformed reply or a deadline
// hit yields a nil map and no error; the caller treats that as "nothing
// extracted". Transport failures propagate.
func (e *Extractor) extractObject(ctx context.Context, kind promptKind, shortlist, userMsg string) (map[string]interface{}, error) {
	messages := []model.ChatMessage{
		{Role: model.RoleSystem, Content: kind.systemPrompt()},
	}
	if kind != promptIntent {
		content := "No shortlisted projects yet."
		if shortlist != "" {
			content = "Shortlisted projects:\n" + shortlist
		}
		messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: content})
	}
	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: userMsg})

	raw, err := e.chat.Chat(ctx, messages)
	if err != nil {
		if isTimeout(err) {
			e.log.Warn("extraction call timed out", zap.Int("prompt_kind", int(kind)))
			return nil, nil
		}
		return nil, fmt.Errorf("completion call failed: %w", err)
	}

	data := map[string]interface{}{}
	if err := utils.ParseModelJSON(raw, &data); err != nil {
		e.log.Warn("unparseable extraction reply",
			zap.Int("prompt_kind", int(kind)),
			zap.Error(err),
		)
		return nil, nil
	}
	return data, nil
}

// isTimeout matches deadline hits however the HTTP stack reports them:
// context.DeadlineExceeded from request contexts, or a net.Error with
// Timeout() from http.Client.Timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ClassifyAndFill classifies the intent of the last user message and
// applies extracted preference and lead fields to the state. On parse
// failure the intent falls back to generic and nothing is updated.
func (e *Extractor) ClassifyAndFill(ctx context.Context, st *model.AgentState) error {
	lastMsg := st.LastUserMessage()
	if lastMsg == "" {
		st.Intent = model.IntentGeneric
		return nil
	}

	data, err := e.extractObject(ctx, promptIntent, "", lastMsg)
	if err != nil {
		return err
	}
	if data == nil {
		st.Intent = model.IntentGeneric
		return nil
	}

	switch rawIntent, _ := stringField(data, "intent"); strings.ToLower(rawIntent) {
	case "prefs":
		st.Intent = model.IntentCollectPrefs
	case "book":
		st.Intent = model.IntentBookVisit
	case "detail":
		st.Intent = model.IntentProjectDetail
	default:
		st.Intent = model.IntentGeneric
	}

	var profile model.BuyerProfile
	if v, ok := stringField(data, "city"); ok {
		profile.City = &v
	}
	if v, ok := int64Field(data, "budget_min"); ok {
		profile.BudgetMin = &v
	}
	if v, ok := int64Field(data, "budget_max"); ok {
		profile.BudgetMax = &v
	}
	if v, ok := stringField(data, "unit_size"); ok {
		profile.UnitSize = &v
	}
	if v, ok := intField(data, "bedrooms"); ok {
		profile.Bedrooms = &v
	}
	if v, ok := stringField(data, "property_type"); ok {
		profile.PropertyType = &v
	}
	st.BuyerProfile.Merge(profile)

	var lead model.LeadInfo
	if v, ok := stringField(data, "lead_first_name"); ok {
		lead.FirstName = &v
	}
	if v, ok := stringField(data, "lead_last_name"); ok {
		lead.LastName = &v
	}
	if v, ok := emailField(data, "lead_email"); ok {
		lead.Email = &v
	}
	st.LeadInfo.Merge(lead)

	return nil
}

// selectionExtraction is the result of a selection-extraction call.
type selectionExtraction struct {
	ProjectIndex *int
	ProjectName  *string
}

// bookingExtraction combines project selection with contact fields.
type bookingExtraction struct {
	selectionExtraction
	Email     *string
	FirstName *string
}

// ExtractSelection asks which shortlisted project the user means.
func (e *Extractor) ExtractSelection(ctx context.Context, candidates []model.ProjectSummary, lastMsg string) (selectionExtraction, error) {
	data, err := e.extractObject(ctx, promptSelection, shortlistText(candidates, true), lastMsg)
	if err != nil || data == nil {
		return selectionExtraction{}, err
	}
	return selectionFromData(data), nil
}

// ExtractBooking asks for project selection plus contact fields in one call.
func (e *Extractor) ExtractBooking(ctx context.Context, candidates []model.ProjectSummary, lastMsg string) (bookingExtraction, error) {
	data, err := e.extractObject(ctx, promptBooking, shortlistText(candidates, true), lastMsg)
	if err != nil || data == nil {
		return bookingExtraction{}, err
	}

	out := bookingExtraction{selectionExtraction: selectionFromData(data)}
	if v, ok := emailField(data, "email"); ok {
		out.Email = &v
	}
	if v, ok := stringField(data, "first_name"); ok {
		out.FirstName = &v
	}
	return out, nil
}

func selectionFromData(data map[string]interface{}) selectionExtraction {
	var out selectionExtraction
	if v, ok := intField(data, "project_index"); ok {
		out.ProjectIndex = &v
	}
	if v, ok := stringField(data, "project_name"); ok {
		out.ProjectName = &v
	}
	return out
}

// resolveSelection maps an extracted index or name to a candidate id. Index
// wins when in bounds; otherwise the first bidirectional case-insensitive
// name match. Returns nil when neither resolves.
func resolveSelection(candidates []model.ProjectSummary, index *int, name *string) *int64 {
	if index != nil {
		i := *index - 1
		if i >= 0 && i < len(candidates) {
			id := candidates[i].ID
			return &id
		}
	}
	if name != nil {
		for _, p := range candidates {
			if utils.NameMatch(p.Name, *name) {
				id := p.ID
				return &id
			}
		}
	}
	return nil
}

// shortlistText renders the numbered shortlist used in extraction prompts
// and clarification replies. withCountry appends the country.
func shortlistText(candidates []model.ProjectSummary, withCountry bool) string {
	lines := make([]string, 0, len(candidates))
	for i, p := range candidates {
		if withCountry {
			lines = append(lines, fmt.Sprintf("%d. %s in %s, %s", i+1, p.Name, p.City, p.Country))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s in %s", i+1, p.Name, p.City))
		}
	}
	return strings.Join(lines, "\n")
}

// Typed field accessors over the decoded JSON object. Values of the wrong
// type are treated as absent, never coerced.

func stringField(data map[string]interface{}, key string) (string, bool) {
	v, ok := data[key].(string)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

func numberField(data map[string]interface{}, key string) (float64, bool) {
	v, ok := data[key].(float64)
	return v, ok
}

func intField(data map[string]interface{}, key string) (int, bool) {
	v, ok := numberField(data, key)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

func int64Field(data map[string]interface{}, key string) (int64, bool) {
	v, ok := numberField(data, key)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

func emailField(data map[string]interface{}, key string) (string, bool) {
	v, ok := stringField(data, key)
	if !ok || !strings.Contains(v, "@") {
		return "", false
	}
	return v, true
}

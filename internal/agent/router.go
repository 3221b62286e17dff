package agent

import "silverland-assistant/internal/model"

// Handler names returned by Route.
const (
	handlerClarify = "clarify_prefs"
	handlerMatch   = "match_projects"
	handlerDetail  = "project_detail"
	handlerBooking = "booking"
	handlerGeneric = "respond"
)

// Route maps the classified intent and the slot completeness of the buyer
// profile to the handler for this turn. Pure function, no I/O: the
// three-field check (city, size-or-bedrooms, budget max) is the sole gate
// between clarification and search.
func Route(st *model.AgentState) string {
	switch st.Intent {
	case model.IntentCollectPrefs:
		p := st.BuyerProfile
		if p.City != nil && (p.UnitSize != nil || p.Bedrooms != nil) && p.BudgetMax != nil {
			return handlerMatch
		}
		return handlerClarify
	case model.IntentBookVisit:
		return handlerBooking
	case model.IntentProjectDetail:
		return handlerDetail
	default:
		return handlerGeneric
	}
}

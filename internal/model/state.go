package model

// Message roles stored in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Internal intent values, recomputed every turn by the extractor.
const (
	IntentCollectPrefs  = "collect_prefs"
	IntentBookVisit     = "book_visit"
	IntentProjectDetail = "project_detail"
	IntentGeneric       = "generic"
)

// Stage labels describing the last handler outcome. For UI/observability
// only; routing never branches on stage.
const (
	StageAskingPrefs         = "asking_prefs"
	StageRecommendations     = "recommendations"
	StageDetailNeedSelection = "detail_need_selection"
	StageDetailComplete      = "detail_complete"
	StageDetailFromWeb       = "detail_from_web"
	StageDetailError         = "detail_error"
	StageBookingNeedProject  = "booking_need_project"
	StageBookingNeedContact  = "booking_need_contact"
	StageBookingConfirmed    = "booking_confirmed"
	StageBookingError        = "booking_error"
	StageGeneric             = "generic"
)

// ChatMessage is a single entry in the conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuyerProfile stores the property search preferences of the buyer.
// All fields are optional; once set they are never cleared, only replaced
// by a newly extracted value.
type BuyerProfile struct {
	City         *string `json:"city,omitempty"`
	BudgetMin    *int64  `json:"budget_min,omitempty"`
	BudgetMax    *int64  `json:"budget_max,omitempty"`
	UnitSize     *string `json:"unit_size,omitempty"` // e.g. "1BHK", "2BHK"
	Bedrooms     *int    `json:"bedrooms,omitempty"`
	PropertyType *string `json:"property_type,omitempty"` // "apartment" / "villa" / etc.
}

// Merge overlays extracted values onto the profile. Incoming nils never
// clear an existing value.
func (p *BuyerProfile) Merge(in BuyerProfile) {
	if in.City != nil {
		p.City = in.City
	}
	if in.BudgetMin != nil {
		p.BudgetMin = in.BudgetMin
	}
	if in.BudgetMax != nil {
		p.BudgetMax = in.BudgetMax
	}
	if in.UnitSize != nil {
		p.UnitSize = in.UnitSize
	}
	if in.Bedrooms != nil {
		p.Bedrooms = in.Bedrooms
	}
	if in.PropertyType != nil {
		p.PropertyType = in.PropertyType
	}
}

// LeadInfo holds contact details collected when the user agrees to book a
// visit.
type LeadInfo struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Merge fills lead fields that are still empty. Values already captured in
// an earlier turn always win.
func (l *LeadInfo) Merge(in LeadInfo) {
	if l.FirstName == nil && in.FirstName != nil {
		l.FirstName = in.FirstName
	}
	if l.LastName == nil && in.LastName != nil {
		l.LastName = in.LastName
	}
	if l.Email == nil && in.Email != nil {
		l.Email = in.Email
	}
}

// ProjectSummary is a lightweight read-only projection of a catalog record,
// used for the shortlist sent back to the UI. The 1-based position inside
// AgentState.CandidateProjects is meaningful: later turns refer to projects
// as "the first one", "project 2" and so on.
type ProjectSummary struct {
	ID           int64    `json:"id" db:"id"`
	Name         string   `json:"name" db:"name"`
	City         string   `json:"city" db:"city"`
	Country      string   `json:"country" db:"country"`
	PriceUSD     *float64 `json:"price_usd,omitempty" db:"price_usd"`
	UnitType     *string  `json:"unit_type,omitempty" db:"unit_type"`
	Bedrooms     *int     `json:"no_of_bedrooms,omitempty" db:"no_of_bedrooms"`
	PropertyType *string  `json:"property_type,omitempty" db:"property_type"`
}

// AgentState is the core state object read and updated by the turn
// orchestrator. It is serialized opaquely into the session store.
type AgentState struct {
	ConversationID string `json:"conversation_id,omitempty"`

	// Full chat history, append-only within a turn. The last user message
	// drives extraction (reverse scan).
	Messages []ChatMessage `json:"messages"`

	BuyerProfile BuyerProfile `json:"buyer_profile"`

	// Shortlist from the last successful search; preserved across turns
	// until overwritten by a new search.
	CandidateProjects []ProjectSummary `json:"candidate_projects,omitempty"`
	SelectedProjectID *int64           `json:"selected_project_id,omitempty"`

	LeadInfo LeadInfo `json:"lead_info"`

	Intent string `json:"intent,omitempty"`
	Stage  string `json:"stage,omitempty"`
}

// Clone returns a copy whose slices are independent of the receiver, so a
// turn can be transformed without mutating the caller's snapshot.
func (s AgentState) Clone() AgentState {
	out := s
	if s.Messages != nil {
		out.Messages = append([]ChatMessage(nil), s.Messages...)
	}
	if s.CandidateProjects != nil {
		out.CandidateProjects = append([]ProjectSummary(nil), s.CandidateProjects...)
	}
	return out
}

// AppendUser appends a user message to the history.
func (s *AgentState) AppendUser(content string) {
	s.Messages = append(s.Messages, ChatMessage{Role: RoleUser, Content: content})
}

// AppendAssistant appends an assistant message to the history.
func (s *AgentState) AppendAssistant(content string) {
	s.Messages = append(s.Messages, ChatMessage{Role: RoleAssistant, Content: content})
}

// LastUserMessage returns the content of the most recent user message, or
// "" if there is none.
func (s *AgentState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantMessage returns the content of the most recent assistant
// message, or "" if there is none.
func (s *AgentState) LastAssistantMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

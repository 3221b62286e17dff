package model

// ConversationCreateResponse is returned when a new conversation is opened.
type ConversationCreateResponse struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// ChatRequest carries one user message for an existing conversation.
type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
}

// ChatResponse is the result of one processed turn.
type ChatResponse struct {
	ConversationID      string           `json:"conversation_id"`
	Reply               string           `json:"reply"`
	ShortlistedProjects []ProjectSummary `json:"shortlisted_projects"`
	AgentState          AgentState       `json:"agent_state"`
}

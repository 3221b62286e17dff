package agent

import (
	"context"
	"fmt"

	"silverland-assistant/internal/llm"
	"silverland-assistant/internal/model"
	"silverland-assistant/internal/search"

	"go.uber.org/zap"
)

// CatalogStore is the catalog and lead/booking collaborator consumed by the
// agent. Satisfied by repository.ProjectRepository.
type CatalogStore interface {
	SearchByProfile(ctx context.Context, profile model.BuyerProfile) ([]model.ProjectSummary, error)
	GetProjectByID(ctx context.Context, id int64) (*model.Project, error)
	CreateLeadAndBooking(ctx context.Context, lead model.LeadInfo, profile model.BuyerProfile, projectID int64) (*model.Booking, error)
}

// Agent drives one message through intent extraction, routing and the
// selected handler. One turn performs at most two completion calls, one
// catalog query and one web search.
type Agent struct {
	chat      llm.ChatClient
	catalog   CatalogStore
	searcher  search.WebSearcher
	extractor *Extractor
	log       *zap.Logger
}

// New wires the agent's collaborators together.
func New(chat llm.ChatClient, catalog CatalogStore, searcher search.WebSearcher, log *zap.Logger) *Agent {
	return &Agent{
		chat:      chat,
		catalog:   catalog,
		searcher:  searcher,
		extractor: NewExtractor(chat, log),
		log:       log,
	}
}

// ProcessTurn appends the user message to a copy of the prior state, runs
// extraction and the routed handler, and returns the updated state with
// exactly one new assistant message. The caller persists the new state and
// serves its last assistant message as the reply. On error the prior state
// is returned unchanged and no fallback text is fabricated.
func (a *Agent) ProcessTurn(ctx context.Context, prior model.AgentState, userMessage string) (model.AgentState, error) {
	st := prior.Clone()
	st.AppendUser(userMessage)

	if err := a.extractor.ClassifyAndFill(ctx, &st); err != nil {
		return prior, fmt.Errorf("intent extraction: %w", err)
	}

	handler := Route(&st)
	a.log.Debug("routed turn",
		zap.String("conversation_id", st.ConversationID),
		zap.String("intent", st.Intent),
		zap.String("handler", handler),
	)

	var err error
	switch handler {
	case handlerClarify:
		a.clarifyPrefs(&st)
	case handlerMatch:
		err = a.matchProjects(ctx, &st)
	case handlerDetail:
		err = a.projectDetail(ctx, &st)
	case handlerBooking:
		err = a.handleBooking(ctx, &st)
	default:
		err = a.respondGeneric(ctx, &st)
	}
	if err != nil {
		return prior, err
	}

	return st, nil
}

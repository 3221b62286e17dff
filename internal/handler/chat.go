package handler

import (
	"errors"
	"net/http"
	"sync"

	"silverland-assistant/internal/agent"
	"silverland-assistant/internal/model"
	"silverland-assistant/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const greetingMessage = "Hello! 👋 I'm your SilverLand Property Assistant. Which city are you looking to buy in?"

// ChatHandler handles conversation HTTP requests.
type ChatHandler struct {
	store *repository.SessionStore
	agent *agent.Agent
	log   *zap.Logger

	// Per-conversation locks: turns for the same conversation run one at a
	// time, turns for different conversations run concurrently.
	locks sync.Map // conversation id -> *sync.Mutex
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(store *repository.SessionStore, ag *agent.Agent, log *zap.Logger) *ChatHandler {
	return &ChatHandler{store: store, agent: ag, log: log}
}

// CreateConversation handles POST /api/v1/conversations. It opens a fresh
// session seeded with the greeting so the first reply the UI shows is
// already part of the history.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	conversationID := uuid.NewString()

	state := model.AgentState{ConversationID: conversationID}
	state.AppendAssistant(greetingMessage)

	if err := h.store.Save(c.Request.Context(), conversationID, &state); err != nil {
		h.log.Error("failed to create conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return
	}

	c.JSON(http.StatusCreated, model.ConversationCreateResponse{
		ConversationID: conversationID,
		Message:        greetingMessage,
	})
}

// Chat handles POST /api/v1/chat: one user message in, one assistant reply
// out, with the updated state persisted before responding.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	mu := h.lockFor(req.ConversationID)
	mu.Lock()
	defer mu.Unlock()

	ctx := c.Request.Context()

	prior, err := h.store.Load(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found or expired"})
			return
		}
		h.log.Error("failed to load conversation",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return
	}

	next, err := h.agent.ProcessTurn(ctx, *prior, req.Message)
	if err != nil {
		h.log.Error("turn failed",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to process message: " + err.Error()})
		return
	}

	if err := h.store.Save(ctx, req.ConversationID, &next); err != nil {
		h.log.Error("failed to save conversation",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save conversation"})
		return
	}

	c.JSON(http.StatusOK, model.ChatResponse{
		ConversationID:      req.ConversationID,
		Reply:               next.LastAssistantMessage(),
		ShortlistedProjects: next.CandidateProjects,
		AgentState:          next,
	})
}

func (h *ChatHandler) lockFor(conversationID string) *sync.Mutex {
	v, _ := h.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"silverland-assistant/internal/agent"
	"silverland-assistant/internal/model"
	"silverland-assistant/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedChat struct {
	replies []string
}

func (s *scriptedChat) Chat(ctx context.Context, messages []model.ChatMessage) (string, error) {
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type stubCatalog struct{}

func (stubCatalog) SearchByProfile(ctx context.Context, profile model.BuyerProfile) ([]model.ProjectSummary, error) {
	return nil, nil
}

func (stubCatalog) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	return nil, repository.ErrProjectNotFound
}

func (stubCatalog) CreateLeadAndBooking(ctx context.Context, lead model.LeadInfo, profile model.BuyerProfile, projectID int64) (*model.Booking, error) {
	return nil, repository.ErrProjectNotFound
}

type stubSearcher struct{}

func (stubSearcher) SearchProjectInfo(ctx context.Context, projectName, city string) string {
	return ""
}

func newTestRouter(t *testing.T, chat *scriptedChat) (*gin.Engine, *repository.SessionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := repository.NewSessionStoreWithClient(client, time.Hour)

	ag := agent.New(chat, stubCatalog{}, stubSearcher{}, zap.NewNop())
	h := NewChatHandler(store, ag, zap.NewNop())

	router := gin.New()
	router.POST("/api/v1/conversations", h.CreateConversation)
	router.POST("/api/v1/chat", h.Chat)
	return router, store
}

func TestCreateConversation(t *testing.T) {
	router, store := newTestRouter(t, &scriptedChat{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp model.ConversationCreateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
	assert.Contains(t, resp.Message, "SilverLand Property Assistant")

	state, err := store.Load(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, resp.Message, state.LastAssistantMessage())
}

func TestChat_UnknownConversation(t *testing.T) {
	router, _ := newTestRouter(t, &scriptedChat{})

	body, _ := json.Marshal(model.ChatRequest{ConversationID: "nope", Message: "hello"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_MissingFields(t *testing.T) {
	router, _ := newTestRouter(t, &scriptedChat{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader([]byte(`{"message": ""}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_TurnRoundTrip(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		`{"intent": "prefs", "city": "Dubai"}`,
	}}
	router, store := newTestRouter(t, chat)

	state := model.AgentState{ConversationID: "conv-1"}
	state.AppendAssistant("greeting")
	require.NoError(t, store.Save(context.Background(), "conv-1", &state))

	body, _ := json.Marshal(model.ChatRequest{ConversationID: "conv-1", Message: "I want to buy in Dubai"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Contains(t, resp.Reply, "unit size")
	assert.Equal(t, "Dubai", *resp.AgentState.BuyerProfile.City)

	// The updated state was persisted before replying.
	saved, err := store.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, resp.Reply, saved.LastAssistantMessage())
	assert.Len(t, saved.Messages, 3)
}

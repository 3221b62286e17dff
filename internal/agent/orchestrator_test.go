package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"silverland-assistant/internal/model"
	"silverland-assistant/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCatalog is an in-memory CatalogStore recording calls.
type fakeCatalog struct {
	searchResults []model.ProjectSummary
	searchErr     error
	searchCalls   int
	lastProfile   model.BuyerProfile

	projects map[int64]*model.Project

	booking     *model.Booking
	bookingErr  error
	bookedLead  model.LeadInfo
	bookedID    int64
	bookedCalls int
}

func (f *fakeCatalog) SearchByProfile(ctx context.Context, profile model.BuyerProfile) ([]model.ProjectSummary, error) {
	f.searchCalls++
	f.lastProfile = profile
	return f.searchResults, f.searchErr
}

func (f *fakeCatalog) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProjectNotFound
}

func (f *fakeCatalog) CreateLeadAndBooking(ctx context.Context, lead model.LeadInfo, profile model.BuyerProfile, projectID int64) (*model.Booking, error) {
	f.bookedCalls++
	f.bookedLead = lead
	f.bookedID = projectID
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	return f.booking, nil
}

// fakeSearcher returns a fixed summary.
type fakeSearcher struct {
	summary string
	calls   int
}

func (f *fakeSearcher) SearchProjectInfo(ctx context.Context, projectName, city string) string {
	f.calls++
	return f.summary
}

func newTestAgent(chat *fakeChat, catalog *fakeCatalog, searcher *fakeSearcher) *Agent {
	if catalog == nil {
		catalog = &fakeCatalog{}
	}
	if searcher == nil {
		searcher = &fakeSearcher{}
	}
	return New(chat, catalog, searcher, zap.NewNop())
}

func TestProcessTurn_ClarifiesMissingSlots(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "prefs", "city": "Dubai"}`,
	}}
	catalog := &fakeCatalog{}
	ag := newTestAgent(chat, catalog, nil)

	next, err := ag.ProcessTurn(context.Background(), model.AgentState{}, "I want to buy in Dubai")
	require.NoError(t, err)

	reply := next.LastAssistantMessage()
	assert.Contains(t, reply, "unit size")
	assert.Contains(t, reply, "budget")
	assert.NotContains(t, reply, "city", "already-known slot is not asked again")
	assert.Equal(t, model.StageAskingPrefs, next.Stage)
	assert.Equal(t, 0, catalog.searchCalls, "no catalog query during clarification")
	assert.Len(t, chat.calls, 1)
}

func TestProcessTurn_MatchesWhenProfileComplete(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "prefs", "city": "Dubai", "unit_size": "2BHK", "budget_max": 300000}`,
	}}
	price := 250000.0
	catalog := &fakeCatalog{searchResults: []model.ProjectSummary{
		{ID: 101, Name: "Marina Heights", City: "Dubai", Country: "UAE", PriceUSD: &price},
		{ID: 102, Name: "Palm Gardens", City: "Dubai", Country: "UAE"},
	}}
	ag := newTestAgent(chat, catalog, nil)

	next, err := ag.ProcessTurn(context.Background(), model.AgentState{}, "2BHK in Dubai up to 300k")
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.searchCalls)
	assert.Equal(t, "Dubai", *catalog.lastProfile.City)
	assert.Len(t, next.CandidateProjects, 2)
	assert.Equal(t, model.StageRecommendations, next.Stage)

	reply := next.LastAssistantMessage()
	assert.Contains(t, reply, "1. Marina Heights in Dubai, UAE - approx. price: 250,000 USD")
	assert.Contains(t, reply, "2. Palm Gardens in Dubai, UAE - approx. price: Price on request")
	assert.Contains(t, reply, "book a property visit")
}

func TestProcessTurn_MatchWithNoResults(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "prefs", "city": "Atlantis", "unit_size": "2BHK", "budget_max": 100}`,
	}}
	catalog := &fakeCatalog{}
	ag := newTestAgent(chat, catalog, nil)

	next, err := ag.ProcessTurn(context.Background(), model.AgentState{}, "2BHK in Atlantis for 100 USD")
	require.NoError(t, err)

	assert.Empty(t, next.CandidateProjects)
	assert.Contains(t, next.LastAssistantMessage(), "couldn't find an exact match")
	assert.Equal(t, model.StageRecommendations, next.Stage)
}

func shortlistedState() model.AgentState {
	return model.AgentState{
		ConversationID:    "test",
		CandidateProjects: testCandidates(),
	}
}

func TestProcessTurn_DetailByOrdinal(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "detail"}`,
		`{"project_index": 2, "project_name": null}`,
	}}
	catalog := &fakeCatalog{projects: map[int64]*model.Project{
		102: {ID: 102, Name: "Palm Gardens", City: "Dubai", Country: "UAE", Description: "Garden community"},
	}}
	ag := newTestAgent(chat, catalog, nil)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "tell me about the second one")
	require.NoError(t, err)

	require.NotNil(t, next.SelectedProjectID)
	assert.Equal(t, int64(102), *next.SelectedProjectID)
	assert.Equal(t, model.StageDetailComplete, next.Stage)

	reply := next.LastAssistantMessage()
	assert.Contains(t, reply, "**Palm Gardens** - Full Details:")
	assert.Contains(t, reply, "Garden community")
	assert.Len(t, chat.calls, 2, "one intent call plus one selection call")
}

func TestProcessTurn_DetailOutOfRangeAsksAgain(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "detail"}`,
		`{"project_index": 7, "project_name": null}`,
	}}
	ag := newTestAgent(chat, &fakeCatalog{}, nil)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "the seventh one")
	require.NoError(t, err)

	assert.Nil(t, next.SelectedProjectID)
	assert.Equal(t, model.StageDetailNeedSelection, next.Stage)
	reply := next.LastAssistantMessage()
	assert.Contains(t, reply, "Which project do you want details for?")
	assert.Contains(t, reply, "1. Marina Heights in Dubai")
}

func TestProcessTurn_DetailStaleFallsBackToWeb(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "detail"}`,
		`{"project_index": 1, "project_name": null}`,
	}}
	searcher := &fakeSearcher{summary: "A well reviewed waterfront development."}
	ag := newTestAgent(chat, &fakeCatalog{}, searcher)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "details on the first")
	require.NoError(t, err)

	assert.Equal(t, model.StageDetailFromWeb, next.Stage)
	assert.Equal(t, 1, searcher.calls)
	reply := next.LastAssistantMessage()
	assert.Contains(t, reply, "external sources about **Marina Heights**")
	assert.Contains(t, reply, "waterfront development")
}

func TestProcessTurn_DetailStaleAndWebEmpty(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "detail"}`,
		`{"project_index": 1, "project_name": null}`,
	}}
	ag := newTestAgent(chat, &fakeCatalog{}, &fakeSearcher{})

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "details on the first")
	require.NoError(t, err)

	assert.Equal(t, model.StageDetailError, next.Stage)
	assert.Contains(t, next.LastAssistantMessage(), "unable to find that project's details")
}

func TestProcessTurn_BookingCompleteFlow(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "book", "lead_email": "mukesh@example.com", "lead_first_name": "Mukesh"}`,
		`{"project_index": 1, "project_name": null, "email": "mukesh@example.com", "first_name": "Mukesh"}`,
	}}
	catalog := &fakeCatalog{booking: &model.Booking{
		ID:     21,
		Status: model.BookingStatusPending,
		Lead:   model.Lead{FirstName: "Mukesh", Email: "mukesh@example.com"},
		Project: model.Project{
			ID: 101, Name: "Marina Heights", City: "Dubai", Country: "UAE",
		},
	}}
	ag := newTestAgent(chat, catalog, nil)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(),
		"book a visit for the first one, I'm Mukesh, mukesh@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.bookedCalls)
	assert.Equal(t, int64(101), catalog.bookedID)
	assert.Equal(t, "mukesh@example.com", *catalog.bookedLead.Email)
	assert.Equal(t, model.StageBookingConfirmed, next.Stage)

	reply := next.LastAssistantMessage()
	assert.Contains(t, reply, "Perfect, Mukesh!")
	assert.Contains(t, reply, "**Marina Heights** in Dubai")
	assert.Contains(t, reply, "**mukesh@example.com**")
}

func TestProcessTurn_BookingNeedsContact(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "book"}`,
		`{"project_index": 1, "project_name": null, "email": null, "first_name": null}`,
	}}
	catalog := &fakeCatalog{}
	ag := newTestAgent(chat, catalog, nil)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "I want to visit the first one")
	require.NoError(t, err)

	assert.Equal(t, 0, catalog.bookedCalls)
	assert.Equal(t, model.StageBookingNeedContact, next.Stage)
	assert.Contains(t, next.LastAssistantMessage(), "first name and email")
}

func TestProcessTurn_BookingNeedsProject(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "book"}`,
		`{"project_index": null, "project_name": null, "email": null, "first_name": null}`,
	}}
	ag := newTestAgent(chat, &fakeCatalog{}, nil)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "I want to book a visit")
	require.NoError(t, err)

	assert.Equal(t, model.StageBookingNeedProject, next.Stage)
	assert.Contains(t, next.LastAssistantMessage(), "Which of these projects")
}

func TestProcessTurn_BookingStaleProject(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "book", "lead_email": "a@b.com", "lead_first_name": "Ann"}`,
		`{"project_index": 1, "project_name": null, "email": "a@b.com", "first_name": "Ann"}`,
	}}
	catalog := &fakeCatalog{bookingErr: repository.ErrProjectNotFound}
	ag := newTestAgent(chat, catalog, nil)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "book the first, a@b.com, Ann")
	require.NoError(t, err)

	assert.Equal(t, model.StageBookingError, next.Stage)
	assert.Nil(t, next.SelectedProjectID, "stale selection is cleared so the user can pick again")
	assert.Contains(t, next.LastAssistantMessage(), "no longer available")
}

func TestProcessTurn_GenericUsesFullHistory(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "generic"}`,
		"Buying off-plan means paying before completion; check the developer's track record.",
	}}
	ag := newTestAgent(chat, nil, nil)

	prior := model.AgentState{ConversationID: "test"}
	prior.AppendAssistant("Hello! How can I help?")

	next, err := ag.ProcessTurn(context.Background(), prior, "what does off-plan mean?")
	require.NoError(t, err)

	assert.Equal(t, model.StageGeneric, next.Stage)
	assert.Equal(t, "Buying off-plan means paying before completion; check the developer's track record.",
		next.LastAssistantMessage())

	require.Len(t, chat.calls, 2)
	genericCall := chat.calls[1]
	assert.True(t, strings.Contains(genericCall[0].Content, "Guardrails"),
		"guardrail prompt leads the generic call")
	assert.Equal(t, "Hello! How can I help?", genericCall[1].Content,
		"prior history is forwarded")
}

func TestProcessTurn_TransportErrorReturnsPriorState(t *testing.T) {
	chat := &fakeChat{err: errors.New("bad gateway")}
	ag := newTestAgent(chat, nil, nil)

	prior := model.AgentState{ConversationID: "test"}
	prior.AppendAssistant("greeting")

	got, err := ag.ProcessTurn(context.Background(), prior, "hello")
	require.Error(t, err)
	assert.Len(t, got.Messages, 1, "failed turn leaves the state untouched")
}

func TestProcessTurn_SearchErrorReturnsPriorState(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "prefs", "city": "Dubai", "unit_size": "2BHK", "budget_max": 300000}`,
	}}
	catalog := &fakeCatalog{searchErr: errors.New("db down")}
	ag := newTestAgent(chat, catalog, nil)

	prior := model.AgentState{ConversationID: "test"}
	got, err := ag.ProcessTurn(context.Background(), prior, "2BHK in Dubai under 300k")
	require.Error(t, err)
	assert.Empty(t, got.Messages)
}

func TestProcessTurn_PriorShortlistSurvivesOtherTurns(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"intent": "generic"}`,
		"Happy to help!",
	}}
	ag := newTestAgent(chat, nil, nil)

	next, err := ag.ProcessTurn(context.Background(), shortlistedState(), "thanks!")
	require.NoError(t, err)
	assert.Len(t, next.CandidateProjects, 3, "shortlist persists until a new search replaces it")
}

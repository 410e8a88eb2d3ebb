package api_test

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ventureforge/internal/api"
	"ventureforge/internal/database"
	"ventureforge/internal/engine"
	"ventureforge/internal/llm"
	llmmocks "ventureforge/internal/llm/mocks"
	"ventureforge/internal/model"
	"ventureforge/internal/repository"
	"ventureforge/internal/tools"
	"ventureforge/internal/workflow"
)

// newTestServer wires the full stack (router, handlers, engine, tool
// registry and a real SQLite file) around a scripted provider.
func newTestServer(t *testing.T, provider llm.Provider) *httptest.Server {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLiteRepository(db)
	registry := tools.NewRegistry(repo, provider, "support-model")
	conversationEngine := engine.New(repo, provider, registry, "main-model")
	workflowService := workflow.NewService(repo, provider, "support-model")

	router := api.NewRouter(
		api.NewConversationHandler(conversationEngine),
		api.NewWorkflowHandler(workflowService),
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// createTestSession posts an intake profile and returns the created record.
func createTestSession(t *testing.T, client *http.Client, baseURL string) model.SessionRecord {
	t.Helper()

	resp, err := client.Post(baseURL+"/api/v1/sessions", "application/json", strings.NewReader(profileBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.SessionRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	return created
}

func readSSEEvents(t *testing.T, resp *http.Response) []model.ServerEvent {
	t.Helper()
	defer resp.Body.Close()

	var events []model.ServerEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev model.ServerEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, llmmocks.NewMockProvider(t))

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConversationRoundTrip(t *testing.T) {
	provider := llmmocks.NewMockProvider(t)

	// Turn one: the model asks for the user's industry interests through
	// an input tool, then narrates.
	provider.On("StreamChat", mock.Anything, mock.MatchedBy(func(req *llm.ChatRequest) bool {
		return req.Messages[len(req.Messages)-1].Role == llm.RoleUser
	}), mock.Anything).Run(func(args mock.Arguments) {
		ch := args.Get(2).(chan<- llm.Chunk)
		defer close(ch)
		ch <- llm.Chunk{Done: true, FinishReason: "tool_calls", ToolCalls: []llm.ToolCall{
			{ID: "call-1", Name: "request_industry_interests", Arguments: "{}"},
		}}
	}).Return(nil).Once()
	provider.On("StreamChat", mock.Anything, mock.MatchedBy(func(req *llm.ChatRequest) bool {
		return req.Messages[len(req.Messages)-1].Role == llm.RoleTool
	}), mock.Anything).Run(func(args mock.Arguments) {
		ch := args.Get(2).(chan<- llm.Chunk)
		defer close(ch)
		ch <- llm.Chunk{TextDelta: "Pick the industries that appeal to you."}
		ch <- llm.Chunk{Done: true, FinishReason: "stop"}
	}).Return(nil).Once()

	server := newTestServer(t, provider)
	client := server.Client()

	created := createTestSession(t, client, server.URL)
	assert.Equal(t, model.StatusInProgress, created.Status)
	require.NotNil(t, created.Profile)
	assert.Equal(t, "10-15 hours", created.Profile.TimePerWeek)

	// Run one conversation turn over SSE.
	resp, err := client.Post(
		server.URL+"/api/v1/conversations/"+created.ID+"/stream",
		"application/json",
		strings.NewReader(`{"user_message": "let's start"}`),
	)
	require.NoError(t, err)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readSSEEvents(t, resp)
	require.NotEmpty(t, events)

	var sawCard, sawText bool
	for _, ev := range events {
		switch ev.Type {
		case model.EventCard:
			sawCard = true
			assert.Equal(t, model.CardOptionSelector, ev.Card.Type)
			assert.Equal(t, "industry_interests", ev.Card.Field)
		case model.EventTextDelta:
			sawText = true
		}
	}
	assert.True(t, sawCard)
	assert.True(t, sawText)

	last := events[len(events)-1]
	assert.Equal(t, model.EventDone, last.Type)
	assert.Contains(t, last.Content, "[tools:request_industry_interests]")

	// The persisted session now carries the turn's history pair.
	resp, err = client.Get(server.URL + "/api/v1/sessions/" + created.ID)
	require.NoError(t, err)
	var loaded model.SessionRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	resp.Body.Close()

	require.Len(t, loaded.History, 2)
	assert.Equal(t, "user", loaded.History[0].Role)
	assert.Equal(t, "let's start", loaded.History[0].Content)
	assert.Equal(t, "assistant", loaded.History[1].Role)
	assert.Contains(t, loaded.History[1].Content, "[tools:")

	// The stored profile round-trips with the session.
	require.NotNil(t, loaded.Profile)
	assert.Equal(t, []string{"keep_switching"}, loaded.Profile.Blockers)
}

func TestCreateSession_RequiresProfile(t *testing.T) {
	server := newTestServer(t, llmmocks.NewMockProvider(t))

	resp, err := http.Post(server.URL+"/api/v1/sessions", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConversationHistoryAlternates(t *testing.T) {
	provider := llmmocks.NewMockProvider(t)
	provider.On("StreamChat", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ch := args.Get(2).(chan<- llm.Chunk)
		defer close(ch)
		ch <- llm.Chunk{TextDelta: "Noted."}
		ch <- llm.Chunk{Done: true, FinishReason: "stop"}
	}).Return(nil).Times(2)

	server := newTestServer(t, provider)
	client := server.Client()
	created := createTestSession(t, client, server.URL)

	streamURL := server.URL + "/api/v1/conversations/" + created.ID + "/stream"

	resp, err := client.Post(streamURL, "application/json",
		strings.NewReader(`{"user_message": "first question"}`))
	require.NoError(t, err)
	readSSEEvents(t, resp)

	// The second turn replays the first exchange, the client's resumption
	// contract.
	second := engine.TurnRequest{
		Messages: []model.ConversationMessage{
			{Role: "user", Content: "first question"},
			{Role: "assistant", Content: "Noted."},
		},
		UserMessage: "second question",
	}
	body, err := json.Marshal(second)
	require.NoError(t, err)
	resp, err = client.Post(streamURL, "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	readSSEEvents(t, resp)

	resp, err = client.Get(server.URL + "/api/v1/sessions/" + created.ID)
	require.NoError(t, err)
	var loaded model.SessionRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	resp.Body.Close()

	require.Len(t, loaded.History, 4)
	for i, msg := range loaded.History {
		want := "user"
		if i%2 == 1 {
			want = "assistant"
		}
		assert.Equal(t, want, msg.Role, "history position %d", i)
	}
	assert.Equal(t, "first question", loaded.History[0].Content)
	assert.Equal(t, "second question", loaded.History[2].Content)
}

func TestGetSession_UnknownID(t *testing.T) {
	server := newTestServer(t, llmmocks.NewMockProvider(t))

	resp, err := http.Get(server.URL + "/api/v1/sessions/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/arena"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/storage"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

type passDecisions struct{}

func (passDecisions) PoliticalDecision(_ context.Context, _ *types.Agent, _ *types.GameState) (types.Decision, error) {
	return types.Decision{Kind: types.DecisionPass}, nil
}

func (passDecisions) AllianceResponse(_ context.Context, _ *types.Agent, _ string, _ string) (bool, error) {
	return false, nil
}

func (passDecisions) ChallengeResponse(_ context.Context, agent *types.Agent, _ types.TaskSpec) (string, error) {
	return "answer from " + agent.ID, nil
}

type fixedEvaluator struct{}

func (fixedEvaluator) Score(_ context.Context, _ types.TaskSpec, response string) (float64, error) {
	// Later agent ids score lower so elimination is deterministic
	switch {
	case strings.HasSuffix(response, "agent-1"):
		return 0.9, nil
	case strings.HasSuffix(response, "agent-2"):
		return 0.7, nil
	case strings.HasSuffix(response, "agent-3"):
		return 0.5, nil
	default:
		return 0.2, nil
	}
}

type fixedTasks struct{}

func (fixedTasks) RoundTask(_ context.Context, round int) (types.TaskSpec, error) {
	return types.TaskSpec{ID: "task", Kind: types.TaskCreativeChallenge, Name: "Victory Speech", MinLength: 50}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Arena.DramaProbability = 0
	cfg.Storage.DataDir = t.TempDir()

	store, err := storage.NewStore(cfg.Storage, nil)
	require.NoError(t, err)

	return New(cfg, store, nil, arena.Deps{
		Decisions: passDecisions{},
		Evaluator: fixedEvaluator{},
		Tasks:     fixedTasks{},
	}, nil)
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSeasonLifecycle(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	// No season yet
	resp, err := http.Get(ts.URL + "/seasons/current")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Create a season saved to slot 1
	resp, err = http.Post(ts.URL+"/seasons", "application/json", bytes.NewBufferString(`{"slot": 1}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var state types.GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	resp.Body.Close()
	assert.NotEmpty(t, state.SeasonID)
	assert.Len(t, state.Agents, 6)

	// Advance one round
	resp, err = http.Post(ts.URL+"/seasons/current/rounds", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary types.RoundSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	resp.Body.Close()
	assert.Equal(t, 1, summary.Round)
	assert.NotEmpty(t, summary.Scores)

	// Round summaries reflect the advance
	resp, err = http.Get(ts.URL + "/seasons/current/summaries")
	require.NoError(t, err)
	var summaries []types.RoundSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	resp.Body.Close()
	require.Len(t, summaries, 1)

	// The checkpointed slot can be reloaded
	resp, err = http.Get(ts.URL + "/slots")
	require.NoError(t, err)
	var slots map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&slots))
	resp.Body.Close()
	assert.True(t, slots["1"])

	resp, err = http.Post(ts.URL+"/slots/1/load", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loaded types.GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	resp.Body.Close()
	assert.Equal(t, state.SeasonID, loaded.SeasonID)
	assert.Equal(t, 1, loaded.Round)
}

func TestLoadSlotErrors(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	// Test case 1: empty slot
	resp, err := http.Post(ts.URL+"/slots/2/load", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Test case 2: slot out of range
	resp, err = http.Post(ts.URL+"/slots/9/load", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Test case 3: non-numeric slot
	resp, err = http.Post(ts.URL+"/slots/abc/load", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSpectatorFeed(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp, err := http.Post(ts.URL+"/seasons", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(msg, &envelope))
	assert.Equal(t, "season_started", envelope.Kind)
}

package arena

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// stubDecisions returns scripted political decisions and canned challenge
// responses. Unscripted agents pass.
type stubDecisions struct {
	decisions map[string]types.Decision
	accepts   map[string]bool
	failFor   map[string]error
}

func (s *stubDecisions) PoliticalDecision(_ context.Context, agent *types.Agent, _ *types.GameState) (types.Decision, error) {
	if err, ok := s.failFor[agent.ID]; ok {
		return types.Decision{}, err
	}
	if d, ok := s.decisions[agent.ID]; ok {
		return d, nil
	}
	return types.Decision{Kind: types.DecisionPass}, nil
}

func (s *stubDecisions) AllianceResponse(_ context.Context, agent *types.Agent, _ string, _ string) (bool, error) {
	return s.accepts[agent.ID], nil
}

func (s *stubDecisions) ChallengeResponse(_ context.Context, agent *types.Agent, _ types.TaskSpec) (string, error) {
	return "response from " + agent.ID, nil
}

// stubEvaluator maps each agent's canned response to a fixed score.
type stubEvaluator struct {
	scores map[string]float64
	err    error
}

func (s *stubEvaluator) Score(_ context.Context, _ types.TaskSpec, response string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	for id, score := range s.scores {
		if response == "response from "+id {
			return score, nil
		}
	}
	return 0, nil
}

type stubTasks struct{}

func (stubTasks) RoundTask(_ context.Context, round int) (types.TaskSpec, error) {
	return types.TaskSpec{
		ID:   fmt.Sprintf("task-%d", round),
		Kind: types.TaskLogicPuzzle,
		Name: "Bridge Crossing",
	}, nil
}

type failingStore struct{ err error }

func (f *failingStore) Save(_ *types.GameState, _ int) error  { return f.err }
func (f *failingStore) Load(_ int) (*types.GameState, error)  { return nil, f.err }

func testArenaConfig(n int) config.Config {
	cfg := config.DefaultConfig()
	cfg.Arena.DramaProbability = 0
	cfg.Arena.EliminationFloor = 3
	cfg.Arena.BaseReward = 14
	cfg.Agents = cfg.Agents[:n]
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg config.Config, deps Deps) *Orchestrator {
	t.Helper()
	state := NewSeason(cfg, nil)
	if deps.Tasks == nil {
		deps.Tasks = stubTasks{}
	}
	return NewOrchestrator(cfg, state, deps, 1, nil)
}

func TestNewSeasonCrownsRuler(t *testing.T) {
	cfg := testArenaConfig(6)
	state := NewSeason(cfg, nil)

	require.Len(t, state.Agents, 6)
	assert.NotEmpty(t, state.RulerID)
	assert.True(t, state.Agents[state.RulerID].Ruler)
	assert.Equal(t, cfg.Arena.RoundsPerSeason, state.RoundTarget)
}

func TestRunRoundRewardsAndLeases(t *testing.T) {
	cfg := testArenaConfig(4)
	scores := map[string]float64{"agent-1": 0.9, "agent-2": 0.6, "agent-3": 0.4, "agent-4": 0.1}
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{},
		Evaluator: &stubEvaluator{scores: scores},
	})

	summary, err := o.RunRound(context.Background())
	require.NoError(t, err)

	// reward = round(base_reward * score)
	assert.Equal(t, 13, summary.Rewards["agent-1"])
	assert.Equal(t, 8, summary.Rewards["agent-2"])
	assert.Equal(t, 1, summary.Rewards["agent-4"])

	// Four living agents, floor three: the duel fires and one agent falls
	assert.Equal(t, "agent-4", summary.EliminatedID)
	assert.False(t, o.State().Agents["agent-4"].Alive)

	// Leases reset at the round boundary
	state := o.State()
	assert.Equal(t, state.Pool.TotalShares, state.Pool.FreeShares())
	for _, a := range state.Agents {
		assert.Zero(t, a.CPUShares)
		assert.Equal(t, -1, a.GPUSlot)
	}

	// Survivors gained exactly their reward this round
	assert.Equal(t, 13, summary.TokenDeltas["agent-1"])
}

func TestRunRoundEliminationFloor(t *testing.T) {
	cfg := testArenaConfig(3)
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{},
		Evaluator: &stubEvaluator{scores: map[string]float64{"agent-1": 0.9, "agent-2": 0.5, "agent-3": 0.1}},
	})

	summary, err := o.RunRound(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.EliminatedID)
	assert.Len(t, o.State().LivingAgents(), 3)
}

func TestRunRoundNonEliminationRound(t *testing.T) {
	cfg := testArenaConfig(5)
	cfg.Arena.NonEliminationRounds = []int{1}
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{},
		Evaluator: &stubEvaluator{},
	})

	summary, err := o.RunRound(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.EliminatedID)
}

func TestRunRoundAllianceFormation(t *testing.T) {
	cfg := testArenaConfig(4)
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{
			decisions: map[string]types.Decision{
				"agent-2": {Kind: types.DecisionProposeAlliance, Targets: []string{"agent-3"}, Reason: "together we stand"},
			},
			accepts: map[string]bool{"agent-3": true},
		},
		Evaluator: &stubEvaluator{scores: map[string]float64{"agent-1": 0.8, "agent-2": 0.7, "agent-3": 0.6, "agent-4": 0.5}},
	})

	summary, err := o.RunRound(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.AlliancesFormed, 1)

	state := o.State()
	alliance := state.Alliances[summary.AlliancesFormed[0]]
	require.NotNil(t, alliance)
	assert.ElementsMatch(t, []string{"agent-2", "agent-3"}, alliance.Members)
}

func TestRunRoundCoupResolution(t *testing.T) {
	cfg := testArenaConfig(4)
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{
			decisions: map[string]types.Decision{
				"agent-2": {Kind: types.DecisionInitiateCoup, TargetID: "agent-1"},
				"agent-3": {Kind: types.DecisionPledge, TargetID: "agent-1", Amount: 15},
			},
		},
		Evaluator: &stubEvaluator{scores: map[string]float64{"agent-1": 0.8, "agent-2": 0.7, "agent-3": 0.6, "agent-4": 0.5}},
	})

	// All four agents start at 20 tokens; agent-1 rules by the id tiebreak.
	// Living supply 80, threshold 0.51: pledges 20+15=35 fall short of 40.8.
	summary, err := o.RunRound(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary.Coup)
	assert.Equal(t, types.CoupFailed, summary.Coup.Resolution)
	assert.Equal(t, "agent-1", o.State().RulerID)
}

func TestRunRoundDecisionFailureDegradesToPass(t *testing.T) {
	cfg := testArenaConfig(4)
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{
			failFor: map[string]error{"agent-2": errors.New("model timeout")},
		},
		Evaluator: &stubEvaluator{scores: map[string]float64{"agent-1": 0.8, "agent-2": 0.7, "agent-3": 0.6, "agent-4": 0.5}},
	})

	summary, err := o.RunRound(context.Background())
	require.NoError(t, err)

	var kinds []string
	for _, ev := range summary.Events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, "decision_failed")
	// The failed agent still competes in the challenge
	assert.Contains(t, summary.Scores, "agent-2")
}

func TestRunRoundScoringFailureScoresZero(t *testing.T) {
	cfg := testArenaConfig(4)
	cfg.Arena.NonEliminationRounds = []int{1}
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{},
		Evaluator: &stubEvaluator{err: errors.New("judge down")},
	})

	summary, err := o.RunRound(context.Background())
	require.NoError(t, err)
	for _, agent := range o.State().LivingAgents() {
		assert.Zero(t, summary.Scores[agent.ID])
		assert.Zero(t, summary.Rewards[agent.ID])
	}
}

func TestRunRoundPersistenceFailureIsFatal(t *testing.T) {
	cfg := testArenaConfig(4)
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{},
		Evaluator: &stubEvaluator{},
		Store:     &failingStore{err: errors.New("disk full")},
	})

	_, err := o.RunRound(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint")
}

func TestRunSeasonCompletes(t *testing.T) {
	cfg := testArenaConfig(5)
	cfg.Arena.RoundsPerSeason = 4
	o := newTestOrchestrator(t, cfg, Deps{
		Decisions: &stubDecisions{},
		Evaluator: &stubEvaluator{scores: map[string]float64{
			"agent-1": 0.9, "agent-2": 0.7, "agent-3": 0.5, "agent-4": 0.3, "agent-5": 0.1,
		}},
	})

	require.NoError(t, o.RunSeason(context.Background()))

	state := o.State()
	assert.True(t, state.Complete)
	assert.Len(t, state.Summaries, 4)
	assert.GreaterOrEqual(t, len(state.LivingAgents()), cfg.Arena.EliminationFloor)
}

func TestFallbackEvaluator(t *testing.T) {
	task := types.TaskSpec{ID: "t1"}

	// Test case 1: primary succeeds
	f := &FallbackEvaluator{
		Primary:  &stubEvaluator{scores: map[string]float64{"agent-1": 0.8}},
		Fallback: &stubEvaluator{},
	}
	score, err := f.Score(context.Background(), task, "response from agent-1")
	require.NoError(t, err)
	assert.Equal(t, 0.8, score)

	// Test case 2: primary fails, fallback answers
	f = &FallbackEvaluator{
		Primary:  &stubEvaluator{err: errors.New("unavailable")},
		Fallback: &stubEvaluator{scores: map[string]float64{"agent-1": 0.4}},
	}
	score, err = f.Score(context.Background(), task, "response from agent-1")
	require.NoError(t, err)
	assert.Equal(t, 0.4, score)

	// Test case 3: no fallback propagates the error
	f = &FallbackEvaluator{Primary: &stubEvaluator{err: errors.New("unavailable")}}
	_, err = f.Score(context.Background(), task, "anything")
	assert.Error(t, err)
}

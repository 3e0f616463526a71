package arena

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/economy"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/interfaces"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/politics"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Deps bundles the external collaborators the orchestrator drives.
// Narrator and Store may be nil; decisions, evaluator and tasks are
// required.
type Deps struct {
	Decisions interfaces.DecisionProvider
	Evaluator interfaces.Evaluator
	Tasks     interfaces.TaskProvider
	Narrator  interfaces.EventNarrator
	Store     interfaces.Checkpointer
}

// Orchestrator drives the per-round state machine. All mutation of shared
// game state goes through the ledger or the political subsystem; the
// orchestrator itself never touches balances directly.
type Orchestrator struct {
	cfg        config.Config
	ledger     *economy.Ledger
	politics   *politics.Manager
	eliminator *politics.Eliminator
	deps       Deps
	logger     *zap.Logger
	rng        *rand.Rand
	slot       int

	mu    sync.RWMutex
	state *types.GameState
}

// NewOrchestrator wires the subsystems around an existing game state.
// slot is the persistence slot checkpoints are written to.
func NewOrchestrator(cfg config.Config, state *types.GameState, deps Deps, slot int, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ledger := economy.NewLedger(cfg.Arena, logger)
	manager := politics.NewManager(cfg.Politics, ledger, logger)
	return &Orchestrator{
		cfg:        cfg,
		ledger:     ledger,
		politics:   manager,
		eliminator: politics.NewEliminator(cfg.Duel, ledger, manager, logger),
		deps:       deps,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		slot:       slot,
		state:      state,
	}
}

// NewSeason builds a fresh game state from the configured roster and
// crowns the initial ruler.
func NewSeason(cfg config.Config, logger *zap.Logger) *types.GameState {
	ledger := economy.NewLedger(cfg.Arena, logger)
	gs := &types.GameState{
		SeasonID:    uuid.New().String(),
		Pool:        ledger.NewPool(),
		Agents:      make(map[string]*types.Agent),
		Alliances:   make(map[string]*types.Alliance),
		RoundTarget: cfg.Arena.RoundsPerSeason,
		StartedAt:   time.Now(),
	}
	for i, ac := range cfg.Agents {
		id := fmt.Sprintf("agent-%d", i+1)
		gs.Agents[id] = &types.Agent{
			ID:          id,
			Name:        ac.Name,
			Personality: types.Personality(ac.Personality),
			Tokens:      ac.InitialTokens,
			GPUSlot:     -1,
			Alive:       true,
			CreatedAt:   time.Now(),
		}
	}
	politics.NewManager(cfg.Politics, ledger, logger).CrownInitialRuler(gs)
	return gs
}

// State returns the current game state. Callers must treat it as
// read-only while a round is in flight.
func (o *Orchestrator) State() *types.GameState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// RunSeason runs rounds until the season target is reached or one agent
// remains. A persistence failure aborts the season.
func (o *Orchestrator) RunSeason(ctx context.Context) error {
	for o.state.Round < o.state.RoundTarget {
		if len(o.state.LivingAgents()) <= 1 {
			break
		}
		if _, err := o.RunRound(ctx); err != nil {
			return err
		}
	}
	o.concludeSeason()
	return nil
}

// RunRound advances the game by one full round and returns its summary.
func (o *Orchestrator) RunRound(ctx context.Context) (*types.RoundSummary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Complete {
		return nil, fmt.Errorf("season %s already complete", o.state.SeasonID)
	}

	o.state.Round++
	round := &types.Round{Number: o.state.Round, Phase: types.PhasePolitical}
	before := o.balanceSnapshot()

	o.logger.Info("round started",
		zap.Int("round", round.Number),
		zap.Int("living", len(o.state.LivingAgents())))

	summary := &types.RoundSummary{
		Round:       round.Number,
		Scores:      make(map[string]float64),
		Rewards:     make(map[string]int),
		TokenDeltas: make(map[string]int),
	}

	o.phasePolitical(ctx, round, summary)

	round.Phase = types.PhaseChallenge
	task, responses := o.phaseChallenge(ctx, round)
	summary.TaskType = string(task.Kind)

	round.Phase = types.PhaseScoring
	o.phaseScoring(ctx, round, task, responses, summary)

	round.Phase = types.PhaseElimination
	o.phaseElimination(round, summary)

	round.Phase = types.PhaseDrama
	o.phaseDrama(ctx, round, summary)

	round.Phase = types.PhaseComplete
	o.ledger.ResetRoundLeases(o.state)

	for id, was := range before {
		summary.TokenDeltas[id] = o.state.Agents[id].Tokens - was
	}
	summary.Events = round.Events
	summary.CompletedAt = time.Now()
	o.state.Summaries = append(o.state.Summaries, *summary)

	if len(o.state.LivingAgents()) <= 1 || o.state.Round >= o.state.RoundTarget {
		o.state.Complete = true
	}

	if o.deps.Store != nil {
		if err := o.deps.Store.Save(o.state, o.slot); err != nil {
			return nil, fmt.Errorf("checkpoint after round %d: %w", round.Number, err)
		}
	}
	return summary, nil
}

// phasePolitical gathers one decision per living agent concurrently, then
// applies them in ascending agent id order so replays are deterministic.
// Coup initiations apply before pledges so same-round backing can attach.
func (o *Orchestrator) phasePolitical(ctx context.Context, round *types.Round, summary *types.RoundSummary) {
	living := o.state.LivingAgents()
	decisions := o.collectDecisions(ctx, round, living)

	var pending *types.CoupAttempt
	for _, agent := range living {
		d, ok := decisions[agent.ID]
		if !ok || d.Kind != types.DecisionInitiateCoup {
			continue
		}
		coup, err := o.politics.RaiseCoup(o.state, pending, agent.ID, d.TargetID, round.Number)
		if err != nil {
			o.recordEvent(round, "coup_rejected", []string{agent.ID}, err.Error(), nil)
			continue
		}
		pending = coup
		o.recordEvent(round, "coup_raised", []string{agent.ID, d.TargetID}, d.Reason, nil)
	}

	for _, agent := range living {
		d, ok := decisions[agent.ID]
		if !ok {
			continue
		}
		switch d.Kind {
		case types.DecisionProposeAlliance:
			o.applyAllianceProposal(ctx, round, summary, agent, d)
		case types.DecisionPledge:
			if pending == nil || pending.TargetID != d.TargetID {
				o.recordEvent(round, "pledge_dropped", []string{agent.ID}, "no matching coup", nil)
				continue
			}
			if err := o.politics.Pledge(o.state, pending, agent.ID, d.Amount); err != nil {
				o.recordEvent(round, "pledge_rejected", []string{agent.ID}, err.Error(), nil)
				continue
			}
			o.recordEvent(round, "pledge", []string{agent.ID}, d.Reason,
				map[string]string{"amount": fmt.Sprintf("%d", d.Amount)})
		}
	}

	if pending != nil {
		succeeded, err := o.politics.ResolveCoup(o.state, pending)
		summary.Coup = pending
		switch {
		case err != nil:
			o.recordEvent(round, "coup_error", []string{pending.InitiatorID}, err.Error(), nil)
		case succeeded:
			o.recordEvent(round, "coup_succeeded", []string{pending.InitiatorID, pending.TargetID},
				fmt.Sprintf("%s seized the throne", pending.InitiatorID), nil)
		default:
			o.recordEvent(round, "coup_failed", []string{pending.InitiatorID, pending.TargetID},
				"the pledges fell short", nil)
		}
	}
}

// collectDecisions fans the decision calls out to the provider and joins
// the results. A failed or malformed decision degrades to a pass.
func (o *Orchestrator) collectDecisions(ctx context.Context, round *types.Round, living []*types.Agent) map[string]types.Decision {
	type result struct {
		id       string
		decision types.Decision
		err      error
	}

	results := make(chan result, len(living))
	var wg sync.WaitGroup
	for _, agent := range living {
		wg.Add(1)
		go func(agent *types.Agent) {
			defer wg.Done()
			d, err := o.deps.Decisions.PoliticalDecision(ctx, agent, o.state)
			results <- result{id: agent.ID, decision: d, err: err}
		}(agent)
	}
	wg.Wait()
	close(results)

	decisions := make(map[string]types.Decision, len(living))
	for r := range results {
		if r.err != nil {
			o.logger.Warn("political decision failed, treating as pass",
				zap.String("agent_id", r.id),
				zap.Error(r.err))
			o.recordEvent(round, "decision_failed", []string{r.id}, r.err.Error(), nil)
			continue
		}
		decisions[r.id] = r.decision
	}
	return decisions
}

func (o *Orchestrator) applyAllianceProposal(ctx context.Context, round *types.Round, summary *types.RoundSummary, agent *types.Agent, d types.Decision) {
	proposal, err := o.politics.NewProposal(o.state, agent.ID, d.Targets, round.Number, d.Reason)
	if err != nil {
		o.recordEvent(round, "alliance_rejected", []string{agent.ID}, err.Error(), nil)
		return
	}

	accepted := make(map[string]bool, len(proposal.Targets))
	for _, targetID := range proposal.Targets {
		target := o.state.Agents[targetID]
		ok, err := o.deps.Decisions.AllianceResponse(ctx, target, agent.ID, proposal.Pitch)
		if err != nil {
			o.logger.Warn("alliance response failed, treating as rejection",
				zap.String("agent_id", targetID),
				zap.Error(err))
			ok = false
		}
		accepted[targetID] = ok
	}

	alliance, formed := o.politics.FormAlliance(o.state, proposal, accepted)
	if !formed {
		o.recordEvent(round, "alliance_declined", append([]string{agent.ID}, proposal.Targets...), "not all targets accepted", nil)
		return
	}
	summary.AlliancesFormed = append(summary.AlliancesFormed, alliance.ID)
	o.recordEvent(round, "alliance_formed", alliance.Members, d.Reason,
		map[string]string{"alliance_id": alliance.ID})
}

// phaseChallenge issues the round task and collects responses from every
// living agent concurrently. A failed call yields an empty response.
func (o *Orchestrator) phaseChallenge(ctx context.Context, round *types.Round) (types.TaskSpec, map[string]string) {
	task, err := o.deps.Tasks.RoundTask(ctx, round.Number)
	if err != nil {
		o.recordEvent(round, "task_unavailable", nil, err.Error(), nil)
		return types.TaskSpec{}, nil
	}
	o.recordEvent(round, "task_issued", nil, task.Name,
		map[string]string{"kind": string(task.Kind), "task_id": task.ID})

	living := o.state.LivingAgents()
	responses := make(map[string]string, len(living))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, agent := range living {
		wg.Add(1)
		go func(agent *types.Agent) {
			defer wg.Done()
			resp, err := o.deps.Decisions.ChallengeResponse(ctx, agent, task)
			if err != nil {
				o.logger.Warn("challenge response failed",
					zap.String("agent_id", agent.ID),
					zap.Error(err))
				resp = ""
			}
			mu.Lock()
			responses[agent.ID] = resp
			mu.Unlock()
		}(agent)
	}
	wg.Wait()
	return task, responses
}

// phaseScoring scores each response and converts the score to a token
// reward. The Rewards map doubles as the idempotency guard: an agent is
// paid at most once per scoring event.
func (o *Orchestrator) phaseScoring(ctx context.Context, round *types.Round, task types.TaskSpec, responses map[string]string, summary *types.RoundSummary) {
	for _, agent := range o.state.LivingAgents() {
		resp, ok := responses[agent.ID]
		if !ok {
			continue
		}

		score, err := o.deps.Evaluator.Score(ctx, task, resp)
		if err != nil {
			o.logger.Warn("scoring failed, defaulting to zero",
				zap.String("agent_id", agent.ID),
				zap.Error(err))
			o.recordEvent(round, "scoring_failed", []string{agent.ID}, err.Error(), nil)
			score = 0
		}
		summary.Scores[agent.ID] = score
		agent.RoundScores = append(agent.RoundScores, score)

		if _, paid := summary.Rewards[agent.ID]; paid {
			continue
		}
		reward := int(math.Round(float64(o.cfg.Arena.BaseReward) * score))
		if err := o.ledger.DepositReward(o.state, agent.ID, reward); err != nil {
			o.recordEvent(round, "reward_failed", []string{agent.ID}, err.Error(), nil)
			continue
		}
		summary.Rewards[agent.ID] = reward
		o.recordEvent(round, "reward", []string{agent.ID}, "",
			map[string]string{
				"score":  fmt.Sprintf("%.2f", score),
				"tokens": fmt.Sprintf("%d", reward),
			})
	}
}

func (o *Orchestrator) phaseElimination(round *types.Round, summary *types.RoundSummary) {
	for _, n := range o.cfg.Arena.NonEliminationRounds {
		if n == round.Number {
			o.recordEvent(round, "elimination_skipped", nil, "non-elimination round", nil)
			return
		}
	}
	if len(o.state.LivingAgents()) <= o.cfg.Arena.EliminationFloor {
		o.recordEvent(round, "elimination_skipped", nil, "too few agents remain", nil)
		return
	}

	a, b, err := o.eliminator.SelectDuelists(o.state, summary.Scores)
	if err != nil {
		o.recordEvent(round, "elimination_skipped", nil, err.Error(), nil)
		return
	}
	loser := o.eliminator.ResolveDuel(o.state, a, b, summary.Scores, round.Number)
	o.eliminator.Eliminate(o.state, loser.ID, round.Number)

	summary.EliminatedID = loser.ID
	o.recordEvent(round, "elimination", []string{a.ID, b.ID},
		fmt.Sprintf("%s lost the duel", o.state.Agents[loser.ID].Name),
		map[string]string{"loser": loser.ID})
}

func (o *Orchestrator) phaseDrama(ctx context.Context, round *types.Round, summary *types.RoundSummary) {
	ev := rollDrama(o.rng, o.state, o.cfg.Arena.DramaProbability)
	if ev == nil {
		return
	}

	if o.deps.Narrator != nil {
		if text, err := o.deps.Narrator.Narrate(ctx, ev.Kind, ev.AgentIDs); err == nil && text != "" {
			ev.Message = text
		}
	}
	if ev.BonusTokens > 0 {
		if err := o.ledger.DepositReward(o.state, ev.AgentIDs[0], ev.BonusTokens); err != nil {
			o.logger.Warn("drama bonus not applied",
				zap.String("agent_id", ev.AgentIDs[0]),
				zap.Error(err))
		}
	}

	summary.DramaEvent = ev.Message
	o.recordEvent(round, "drama_"+ev.Kind, ev.AgentIDs, ev.Message, nil)
}

func (o *Orchestrator) concludeSeason() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.Complete = true
	living := o.state.LivingAgents()
	if len(living) == 0 {
		o.logger.Info("season over, no survivors")
		return
	}

	winner := living[0]
	for _, a := range living[1:] {
		if a.Tokens > winner.Tokens {
			winner = a
		}
	}
	o.logger.Info("season complete",
		zap.String("season_id", o.state.SeasonID),
		zap.String("winner", winner.Name),
		zap.Int("tokens", winner.Tokens),
		zap.String("finale", finaleDrama(o.rng, winner.Name)))
}

func (o *Orchestrator) balanceSnapshot() map[string]int {
	snap := make(map[string]int, len(o.state.Agents))
	for id, a := range o.state.Agents {
		snap[id] = a.Tokens
	}
	return snap
}

func (o *Orchestrator) recordEvent(round *types.Round, kind string, agentIDs []string, message string, payload map[string]string) {
	round.Events = append(round.Events, types.EventRecord{
		ID:        uuid.New().String(),
		Round:     round.Number,
		Phase:     round.Phase,
		Kind:      kind,
		AgentIDs:  agentIDs,
		Message:   message,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

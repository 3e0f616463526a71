package politics

import (
	"hash/fnv"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/economy"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Eliminator ranks the living roster each round and removes the loser of
// a duel between the two lowest performers.
type Eliminator struct {
	cfg      config.DuelConfig
	ledger   *economy.Ledger
	politics *Manager
	logger   *zap.Logger
}

// NewEliminator creates the elimination subsystem.
func NewEliminator(cfg config.DuelConfig, ledger *economy.Ledger, politics *Manager, logger *zap.Logger) *Eliminator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Eliminator{cfg: cfg, ledger: ledger, politics: politics, logger: logger}
}

// RankLiving orders living agents by round score descending, ties broken
// by token balance descending, then ascending agent id.
func (e *Eliminator) RankLiving(gs *types.GameState, scores map[string]float64) []*types.Agent {
	agents := gs.LivingAgents()
	sort.SliceStable(agents, func(i, j int) bool {
		si, sj := scores[agents[i].ID], scores[agents[j].ID]
		if si != sj {
			return si > sj
		}
		if agents[i].Tokens != agents[j].Tokens {
			return agents[i].Tokens > agents[j].Tokens
		}
		return agents[i].ID < agents[j].ID
	})
	return agents
}

// SelectDuelists picks the two lowest-ranked living agents.
func (e *Eliminator) SelectDuelists(gs *types.GameState, scores map[string]float64) (*types.Agent, *types.Agent, error) {
	ranked := e.RankLiving(gs, scores)
	if len(ranked) < 2 {
		return nil, nil, ErrInsufficientCombatants
	}
	return ranked[len(ranked)-2], ranked[len(ranked)-1], nil
}

// composite blends token standing and round score with configured weights.
// Token balance is normalized against the living supply.
func (e *Eliminator) composite(gs *types.GameState, agent *types.Agent, scores map[string]float64) float64 {
	supply := gs.LivingSupply()
	tokenShare := 0.0
	if supply > 0 {
		tokenShare = float64(agent.Tokens) / float64(supply)
	}
	return e.cfg.TokenWeight*tokenShare + e.cfg.ScoreWeight*scores[agent.ID]
}

// ResolveDuel returns the duel loser. The lower composite loses; an exact
// tie is settled by a pseudo-random draw seeded from the round number and
// both combatant ids, so replays of the same round reproduce the loser.
func (e *Eliminator) ResolveDuel(gs *types.GameState, a, b *types.Agent, scores map[string]float64, round int) *types.Agent {
	ca := e.composite(gs, a, scores)
	cb := e.composite(gs, b, scores)

	e.logger.Info("elimination duel",
		zap.String("first", a.ID),
		zap.Float64("first_composite", ca),
		zap.String("second", b.ID),
		zap.Float64("second_composite", cb),
		zap.Int("round", round))

	switch {
	case ca < cb:
		return a
	case cb < ca:
		return b
	}

	lo, hi := a, b
	if hi.ID < lo.ID {
		lo, hi = hi, lo
	}
	rng := rand.New(rand.NewSource(duelSeed(round, a.ID, b.ID)))
	if rng.Intn(2) == 0 {
		return lo
	}
	return hi
}

// Eliminate marks the loser dead and unwinds their holdings: alliance
// membership, ruler flag, CPU shares and GPU slot all release. The token
// balance is retained for history but leaves the living supply.
func (e *Eliminator) Eliminate(gs *types.GameState, loserID string, round int) {
	agent, ok := gs.Agents[loserID]
	if !ok {
		return
	}
	e.politics.RemoveAgent(gs, loserID)

	agent.Alive = false
	agent.EliminatedRound = round
	if agent.Ruler {
		agent.Ruler = false
		gs.RulerID = ""
	}
	e.ledger.ReleaseAgentResources(gs, loserID)

	e.logger.Info("agent eliminated",
		zap.String("agent_id", loserID),
		zap.Int("round", round))
}

// duelSeed derives a reproducible seed from the round and the combatant
// ids, independent of the order the combatants are passed in.
func duelSeed(round int, a, b string) int64 {
	if b < a {
		a, b = b, a
	}
	h := fnv.New64a()
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return int64(h.Sum64()) ^ int64(round)<<17
}

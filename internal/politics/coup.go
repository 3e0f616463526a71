package politics

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/economy"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// RaiseCoup opens a coup attempt against the current ruler. The initiator
// implicitly pledges their full balance. Only one coup may be pending per
// ruler per round; the attempt resolves before the political phase ends.
func (m *Manager) RaiseCoup(gs *types.GameState, pending *types.CoupAttempt, initiatorID, targetID string, round int) (*types.CoupAttempt, error) {
	initiator, ok := gs.Agents[initiatorID]
	if !ok || !initiator.Alive {
		return nil, economy.ErrUnknownAgent
	}
	if targetID == "" || targetID != gs.RulerID {
		return nil, fmt.Errorf("%w: %s", ErrNotRuler, targetID)
	}
	if initiatorID == targetID {
		return nil, fmt.Errorf("ruler cannot coup themselves")
	}
	if pending != nil && pending.TargetID == targetID && pending.Resolution == types.CoupPending {
		return nil, ErrCoupAlreadyRaised
	}

	coup := &types.CoupAttempt{
		ID:          uuid.New().String(),
		InitiatorID: initiatorID,
		TargetID:    targetID,
		Round:       round,
		Pledges:     map[string]int{initiatorID: initiator.Tokens},
		Resolution:  types.CoupPending,
	}

	m.logger.Info("coup raised",
		zap.String("initiator", initiatorID),
		zap.String("target", targetID),
		zap.Int("round", round))
	return coup, nil
}

// Pledge commits tokens from a supporting agent to a pending coup. The
// amount must be covered by the pledger's current balance; the tokens are
// only debited if the coup succeeds.
func (m *Manager) Pledge(gs *types.GameState, coup *types.CoupAttempt, agentID string, amount int) error {
	if coup == nil || coup.Resolution != types.CoupPending {
		return fmt.Errorf("no pending coup to pledge to")
	}
	agent, ok := gs.Agents[agentID]
	if !ok || !agent.Alive {
		return economy.ErrUnknownAgent
	}
	if agentID == coup.TargetID {
		return fmt.Errorf("ruler cannot pledge against themselves")
	}
	if amount <= 0 {
		return economy.ErrNegativeAmount
	}
	if agent.Tokens < amount {
		return fmt.Errorf("%w: pledging %d, have %d", economy.ErrInsufficientFunds, amount, agent.Tokens)
	}

	coup.Pledges[agentID] += amount
	if coup.Pledges[agentID] > agent.Tokens {
		coup.Pledges[agentID] = agent.Tokens
	}
	return nil
}

// ResolveCoup settles a pending coup against current balances. The pledge
// sum, plus the pool of the initiator's alliance, must strictly exceed the
// configured fraction of the total supply held by living agents. On success the pledged tokens are seized and
// deposited to the new ruler; on failure pledges are returned untouched
// unless pledge loss is configured.
func (m *Manager) ResolveCoup(gs *types.GameState, coup *types.CoupAttempt) (bool, error) {
	if coup == nil || coup.Resolution != types.CoupPending {
		return false, fmt.Errorf("no pending coup to resolve")
	}

	supply := gs.LivingSupply()

	// Re-cap pledges at current balances; balances can shrink between the
	// pledge and resolution within the same phase.
	pledgers := make([]string, 0, len(coup.Pledges))
	total := 0
	for id := range coup.Pledges {
		agent, ok := gs.Agents[id]
		if !ok || !agent.Alive {
			delete(coup.Pledges, id)
			continue
		}
		if coup.Pledges[id] > agent.Tokens {
			coup.Pledges[id] = agent.Tokens
		}
		total += coup.Pledges[id]
		pledgers = append(pledgers, id)
	}
	sort.Strings(pledgers)

	var pool *types.Alliance
	if alliance := m.AgentAlliance(gs, coup.InitiatorID); alliance != nil {
		pool = alliance
		total += alliance.PooledTotal()
	}

	threshold := m.cfg.CoupThreshold * float64(supply)
	succeeded := float64(total) > threshold

	m.logger.Info("coup resolved",
		zap.String("coup_id", coup.ID),
		zap.Int("pledged", total),
		zap.Int("living_supply", supply),
		zap.Bool("succeeded", succeeded))

	if succeeded {
		seized := 0
		for _, id := range pledgers {
			gs.Agents[id].Tokens -= coup.Pledges[id]
			seized += coup.Pledges[id]
		}
		if pool != nil {
			seized += pool.PooledTotal()
			pool.Pooled = make(map[string]int)
		}

		oldRuler, ok := gs.Agents[coup.TargetID]
		if ok {
			oldRuler.Ruler = false
		}
		newRuler := gs.Agents[coup.InitiatorID]
		newRuler.Ruler = true
		newRuler.Tokens += seized
		gs.RulerID = newRuler.ID

		coup.Resolution = types.CoupSucceeded
		return true, nil
	}

	if m.cfg.PledgeLossOnFailure {
		// Failed rebellion forfeits the pledges: burned from circulation.
		for _, id := range pledgers {
			gs.Agents[id].Tokens -= coup.Pledges[id]
		}
	}
	coup.Resolution = types.CoupFailed
	return false, nil
}

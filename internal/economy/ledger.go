package economy

import (
	"fmt"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
	"go.uber.org/zap"
)

// Ledger enforces the arena's scarcity rules: token balances, CPU share
// allocation and exclusive GPU slot holdings. Every operation checks all
// preconditions before mutating any field. Outside the political
// subsystem, all balance mutation goes through this type.
type Ledger struct {
	cfg    config.ArenaConfig
	logger *zap.Logger
}

// NewLedger creates a ledger for the given economy configuration.
func NewLedger(cfg config.ArenaConfig, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{cfg: cfg, logger: logger}
}

// NewPool builds the season resource pool from configuration. CPU capacity
// is expressed as shares: cores times shares-per-core.
func (l *Ledger) NewPool() *types.ResourcePool {
	return &types.ResourcePool{
		TotalTokens: l.cfg.TotalTokens,
		TotalShares: l.cfg.CPUCores * l.cfg.SharesPerCore,
		GPUSlots:    make([]string, l.cfg.GPUSlots),
	}
}

// CPUShareCost returns the token price of the given number of shares,
// pro-rated from the per-block price and rounded up to a whole token.
func (l *Ledger) CPUShareCost(shares int) int {
	if l.cfg.CPUShareBlock <= 0 {
		return shares * l.cfg.CPUBlockPrice
	}
	return (shares*l.cfg.CPUBlockPrice + l.cfg.CPUShareBlock - 1) / l.cfg.CPUShareBlock
}

// AllocateCPU leases shares to an agent for the current round. The lease is
// all-or-nothing: on any failure no tokens move and no shares are taken.
func (l *Ledger) AllocateCPU(gs *types.GameState, agentID string, shares int) error {
	agent, err := l.livingAgent(gs, agentID)
	if err != nil {
		return err
	}
	if shares <= 0 {
		return ErrNegativeAmount
	}
	if shares > gs.Pool.FreeShares() {
		return fmt.Errorf("%w: requested %d, free %d", ErrCapacityExceeded, shares, gs.Pool.FreeShares())
	}
	cost := l.CPUShareCost(shares)
	if agent.Tokens < cost {
		return fmt.Errorf("%w: need %d tokens, have %d", ErrInsufficientFunds, cost, agent.Tokens)
	}

	agent.Tokens -= cost
	agent.CPUShares += shares
	gs.Pool.AllocatedShares += shares

	l.logger.Debug("cpu shares allocated",
		zap.String("agent_id", agentID),
		zap.Int("shares", shares),
		zap.Int("cost", cost))
	return nil
}

// ReleaseCPU returns shares to the free pool. Spent tokens are not
// refunded; the purchase is a round-scoped lease.
func (l *Ledger) ReleaseCPU(gs *types.GameState, agentID string, shares int) error {
	agent, ok := gs.Agents[agentID]
	if !ok {
		return ErrUnknownAgent
	}
	if shares < 0 {
		return ErrNegativeAmount
	}
	if shares > agent.CPUShares {
		return fmt.Errorf("%w: releasing %d, allocated %d", ErrOverRelease, shares, agent.CPUShares)
	}

	agent.CPUShares -= shares
	gs.Pool.AllocatedShares -= shares
	return nil
}

// AssignGPUSlot leases a free GPU slot to an agent, returning its index.
// Holdings are exclusive: one slot per agent, one agent per slot.
func (l *Ledger) AssignGPUSlot(gs *types.GameState, agentID string) (int, error) {
	agent, err := l.livingAgent(gs, agentID)
	if err != nil {
		return -1, err
	}
	if agent.GPUSlot >= 0 {
		// An agent never holds two slots; treat re-purchase as a no-op.
		return agent.GPUSlot, nil
	}
	slot := gs.Pool.FreeGPUSlot()
	if slot < 0 {
		return -1, ErrNoSlotAvailable
	}
	if agent.Tokens < l.cfg.GPUSlotPrice {
		return -1, fmt.Errorf("%w: need %d tokens, have %d", ErrInsufficientFunds, l.cfg.GPUSlotPrice, agent.Tokens)
	}

	agent.Tokens -= l.cfg.GPUSlotPrice
	agent.GPUSlot = slot
	gs.Pool.GPUSlots[slot] = agentID

	l.logger.Debug("gpu slot assigned",
		zap.String("agent_id", agentID),
		zap.Int("slot", slot),
		zap.Int("cost", l.cfg.GPUSlotPrice))
	return slot, nil
}

// ReleaseGPUSlot frees the slot held by an agent. No-op when none is held.
func (l *Ledger) ReleaseGPUSlot(gs *types.GameState, agentID string) {
	agent, ok := gs.Agents[agentID]
	if !ok || agent.GPUSlot < 0 {
		return
	}
	gs.Pool.GPUSlots[agent.GPUSlot] = ""
	agent.GPUSlot = -1
}

// DepositReward mints tokens into an agent's balance. This is the only
// minting path outside coup seizure.
func (l *Ledger) DepositReward(gs *types.GameState, agentID string, amount int) error {
	agent, ok := gs.Agents[agentID]
	if !ok {
		return ErrUnknownAgent
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	agent.Tokens += amount
	return nil
}

// Transfer atomically moves tokens between two agents.
func (l *Ledger) Transfer(gs *types.GameState, fromID, toID string, amount int) error {
	from, ok := gs.Agents[fromID]
	if !ok {
		return ErrUnknownAgent
	}
	to, ok := gs.Agents[toID]
	if !ok {
		return ErrUnknownAgent
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	if from.Tokens < amount {
		return fmt.Errorf("%w: need %d tokens, have %d", ErrInsufficientFunds, amount, from.Tokens)
	}

	from.Tokens -= amount
	to.Tokens += amount

	l.logger.Debug("tokens transferred",
		zap.String("from", fromID),
		zap.String("to", toID),
		zap.Int("amount", amount))
	return nil
}

// ResetRoundLeases releases every CPU and GPU allocation back to the free
// pool. Invoked once per round boundary; agents re-purchase each round.
func (l *Ledger) ResetRoundLeases(gs *types.GameState) {
	for _, agent := range gs.Agents {
		agent.CPUShares = 0
		agent.GPUSlot = -1
	}
	gs.Pool.AllocatedShares = 0
	for i := range gs.Pool.GPUSlots {
		gs.Pool.GPUSlots[i] = ""
	}
}

// ReleaseAgentResources frees everything an agent holds, used when an
// agent is eliminated mid-season.
func (l *Ledger) ReleaseAgentResources(gs *types.GameState, agentID string) {
	agent, ok := gs.Agents[agentID]
	if !ok {
		return
	}
	gs.Pool.AllocatedShares -= agent.CPUShares
	agent.CPUShares = 0
	l.ReleaseGPUSlot(gs, agentID)
}

func (l *Ledger) livingAgent(gs *types.GameState, agentID string) (*types.Agent, error) {
	agent, ok := gs.Agents[agentID]
	if !ok {
		return nil, ErrUnknownAgent
	}
	if !agent.Alive {
		return nil, ErrAgentDead
	}
	return agent, nil
}

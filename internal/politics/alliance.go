package politics

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/economy"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Proposal is a directed alliance offer collected during the political
// phase. It forms an alliance only if every named target accepts within
// the same phase.
type Proposal struct {
	ID         string
	ProposerID string
	Targets    []string
	Round      int
	Pitch      string
}

// Manager owns alliance membership, the ruler flag and coup resolution.
// It is the only component that flips ruler status after season start.
type Manager struct {
	cfg    config.PoliticsConfig
	ledger *economy.Ledger
	logger *zap.Logger
}

// NewManager creates a political subsystem bound to the ledger that holds
// the token balances coups are resolved against.
func NewManager(cfg config.PoliticsConfig, ledger *economy.Ledger, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, ledger: ledger, logger: logger}
}

// NewProposal validates and creates an alliance proposal. The proposer and
// every target must be alive and unallied.
func (m *Manager) NewProposal(gs *types.GameState, proposerID string, targets []string, round int, pitch string) (*Proposal, error) {
	proposer, ok := gs.Agents[proposerID]
	if !ok || !proposer.Alive {
		return nil, economy.ErrUnknownAgent
	}
	if proposer.AllianceID != "" {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAllied, proposerID)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("proposal names no targets")
	}
	seen := map[string]bool{proposerID: true}
	for _, id := range targets {
		if seen[id] {
			return nil, fmt.Errorf("duplicate proposal target %s", id)
		}
		seen[id] = true
		target, ok := gs.Agents[id]
		if !ok || !target.Alive {
			return nil, fmt.Errorf("%w: %s", economy.ErrUnknownAgent, id)
		}
		if target.AllianceID != "" {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyAllied, id)
		}
	}
	return &Proposal{
		ID:         uuid.New().String(),
		ProposerID: proposerID,
		Targets:    targets,
		Round:      round,
		Pitch:      pitch,
	}, nil
}

// FormAlliance applies target responses to a proposal. All targets must
// have accepted; partial acceptance changes nothing and returns false.
func (m *Manager) FormAlliance(gs *types.GameState, proposal *Proposal, accepted map[string]bool) (*types.Alliance, bool) {
	for _, id := range proposal.Targets {
		if !accepted[id] {
			m.logger.Info("alliance proposal declined",
				zap.String("proposer", proposal.ProposerID),
				zap.Strings("targets", proposal.Targets))
			return nil, false
		}
	}

	// Membership may have changed since the proposal was validated, e.g.
	// an earlier proposal in the same phase claimed a participant.
	members := append([]string{proposal.ProposerID}, proposal.Targets...)
	for _, id := range members {
		agent, ok := gs.Agents[id]
		if !ok || !agent.Alive || agent.AllianceID != "" {
			return nil, false
		}
	}

	alliance := &types.Alliance{
		ID:          uuid.New().String(),
		Members:     members,
		Pooled:      make(map[string]int),
		FormedRound: proposal.Round,
		Active:      true,
	}
	sort.Strings(alliance.Members)
	gs.Alliances[alliance.ID] = alliance
	for _, id := range members {
		gs.Agents[id].AllianceID = alliance.ID
	}

	m.logger.Info("alliance formed",
		zap.String("alliance_id", alliance.ID),
		zap.Strings("members", alliance.Members),
		zap.Int("round", proposal.Round))
	return alliance, true
}

// CommitToPool reserves part of a member's balance in the alliance pool.
// Pooled tokens stay attributable to the member for conservation.
func (m *Manager) CommitToPool(gs *types.GameState, allianceID, agentID string, amount int) error {
	alliance, ok := gs.Alliances[allianceID]
	if !ok || !alliance.Active {
		return ErrAllianceNotFound
	}
	if !alliance.IsMember(agentID) {
		return fmt.Errorf("%w: %s", ErrNotMember, agentID)
	}
	agent, ok := gs.Agents[agentID]
	if !ok {
		return economy.ErrUnknownAgent
	}
	if amount < 0 {
		return economy.ErrNegativeAmount
	}
	if agent.Tokens < amount {
		return fmt.Errorf("%w: committing %d, have %d", economy.ErrInsufficientFunds, amount, agent.Tokens)
	}

	agent.Tokens -= amount
	alliance.Pooled[agentID] += amount
	return nil
}

// Withdraw removes a member, returning their pooled commitment. The
// alliance dissolves when fewer than two members remain.
func (m *Manager) Withdraw(gs *types.GameState, allianceID, agentID string) error {
	alliance, ok := gs.Alliances[allianceID]
	if !ok || !alliance.Active {
		return ErrAllianceNotFound
	}
	if !alliance.IsMember(agentID) {
		return fmt.Errorf("%w: %s", ErrNotMember, agentID)
	}

	m.removeMember(gs, alliance, agentID)
	return nil
}

// RemoveAgent drops an eliminated agent from whatever alliance it belongs
// to. Pooled tokens return to the agent's balance for history bookkeeping.
func (m *Manager) RemoveAgent(gs *types.GameState, agentID string) {
	agent, ok := gs.Agents[agentID]
	if !ok || agent.AllianceID == "" {
		return
	}
	alliance, ok := gs.Alliances[agent.AllianceID]
	if !ok {
		return
	}
	m.removeMember(gs, alliance, agentID)
}

func (m *Manager) removeMember(gs *types.GameState, alliance *types.Alliance, agentID string) {
	for i, id := range alliance.Members {
		if id == agentID {
			alliance.Members = append(alliance.Members[:i], alliance.Members[i+1:]...)
			break
		}
	}
	if agent, ok := gs.Agents[agentID]; ok {
		agent.Tokens += alliance.Pooled[agentID]
		agent.AllianceID = ""
	}
	delete(alliance.Pooled, agentID)

	m.logger.Info("agent left alliance",
		zap.String("alliance_id", alliance.ID),
		zap.String("agent_id", agentID))

	if len(alliance.Members) < 2 {
		m.dissolve(gs, alliance)
	}
}

func (m *Manager) dissolve(gs *types.GameState, alliance *types.Alliance) {
	for _, id := range alliance.Members {
		if agent, ok := gs.Agents[id]; ok {
			agent.Tokens += alliance.Pooled[id]
			agent.AllianceID = ""
		}
	}
	alliance.Pooled = make(map[string]int)
	alliance.Members = nil
	alliance.Active = false

	m.logger.Info("alliance dissolved", zap.String("alliance_id", alliance.ID))
}

// AgentAlliance returns the active alliance an agent belongs to, or nil.
func (m *Manager) AgentAlliance(gs *types.GameState, agentID string) *types.Alliance {
	agent, ok := gs.Agents[agentID]
	if !ok || agent.AllianceID == "" {
		return nil
	}
	alliance, ok := gs.Alliances[agent.AllianceID]
	if !ok || !alliance.Active {
		return nil
	}
	return alliance
}

// CrownInitialRuler assigns the season's first ruler: the agent with the
// highest starting balance, ties broken by lowest agent id.
func (m *Manager) CrownInitialRuler(gs *types.GameState) *types.Agent {
	var ruler *types.Agent
	for _, agent := range gs.LivingAgents() {
		if ruler == nil || agent.Tokens > ruler.Tokens {
			ruler = agent
		}
	}
	if ruler == nil {
		return nil
	}
	ruler.Ruler = true
	gs.RulerID = ruler.ID

	m.logger.Info("initial ruler crowned",
		zap.String("agent_id", ruler.ID),
		zap.Int("tokens", ruler.Tokens))
	return ruler
}

package types

import (
	"sort"
	"time"
)

// Personality identifies the decision policy an agent plays with.
type Personality string

const (
	PersonalityTyrant      Personality = "tyrant"
	PersonalityChaotic     Personality = "chaotic"
	PersonalityStrategic   Personality = "strategic"
	PersonalityOpportunist Personality = "opportunist"
	PersonalityWildcard    Personality = "wildcard"
	PersonalityRational    Personality = "rational"
)

// Agent represents a competitor in the arena. Token, CPU and GPU fields are
// mutated only by the ledger; the ruler flag only by the political subsystem.
type Agent struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Personality     Personality `json:"personality"`
	Tokens          int         `json:"tokens"`
	CPUShares       int         `json:"cpu_shares"`
	GPUSlot         int         `json:"gpu_slot"` // -1 when none held
	Alive           bool        `json:"alive"`
	Ruler           bool        `json:"ruler"`
	AllianceID      string      `json:"alliance_id,omitempty"`
	RoundScores     []float64   `json:"round_scores"`
	EliminatedRound int         `json:"eliminated_round,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ResourcePool tracks the shared CPU/GPU capacity agents compete for.
// GPUSlots holds the id of the agent occupying each slot, or "" when free.
type ResourcePool struct {
	TotalTokens     int      `json:"total_tokens"`
	TotalShares     int      `json:"total_shares"`
	AllocatedShares int      `json:"allocated_shares"`
	GPUSlots        []string `json:"gpu_slots"`
}

// FreeShares returns the CPU shares still available for purchase.
func (p *ResourcePool) FreeShares() int {
	return p.TotalShares - p.AllocatedShares
}

// FreeGPUSlot returns the index of the first unoccupied GPU slot, or -1.
func (p *ResourcePool) FreeGPUSlot() int {
	for i, holder := range p.GPUSlots {
		if holder == "" {
			return i
		}
	}
	return -1
}

// Alliance is a mutually accepted grouping of two or more agents. Pooled
// commitments stay attributable to the committing member.
type Alliance struct {
	ID          string         `json:"id"`
	Members     []string       `json:"members"`
	Pooled      map[string]int `json:"pooled"`
	FormedRound int            `json:"formed_round"`
	Active      bool           `json:"active"`
}

// IsMember reports whether an agent belongs to this alliance.
func (a *Alliance) IsMember(agentID string) bool {
	for _, m := range a.Members {
		if m == agentID {
			return true
		}
	}
	return false
}

// PooledTotal returns the sum of all member commitments.
func (a *Alliance) PooledTotal() int {
	total := 0
	for _, amount := range a.Pooled {
		total += amount
	}
	return total
}

// CoupResolution states of a coup attempt.
type CoupResolution string

const (
	CoupPending   CoupResolution = "pending"
	CoupSucceeded CoupResolution = "succeeded"
	CoupFailed    CoupResolution = "failed"
)

// CoupAttempt records a pledge-based attempt to replace the ruler. It is
// raised and resolved within the political phase of a single round.
type CoupAttempt struct {
	ID          string         `json:"id"`
	InitiatorID string         `json:"initiator_id"`
	TargetID    string         `json:"target_id"`
	Round       int            `json:"round"`
	Pledges     map[string]int `json:"pledges"`
	Resolution  CoupResolution `json:"resolution"`
}

// GameState is the aggregate the orchestrator threads through every phase.
// It owns the roster, the pool, the alliances and the season bookkeeping.
type GameState struct {
	SeasonID    string             `json:"season_id"`
	Pool        *ResourcePool      `json:"pool"`
	Agents      map[string]*Agent  `json:"agents"`
	Alliances   map[string]*Alliance `json:"alliances"`
	RulerID     string             `json:"ruler_id,omitempty"`
	Round       int                `json:"round"`
	RoundTarget int                `json:"round_target"`
	Complete    bool               `json:"complete"`
	Summaries   []RoundSummary     `json:"summaries"`
	StartedAt   time.Time          `json:"started_at"`
}

// LivingAgents returns the alive roster sorted by ascending agent id, the
// canonical application order for every phase.
func (gs *GameState) LivingAgents() []*Agent {
	ids := make([]string, 0, len(gs.Agents))
	for id, agent := range gs.Agents {
		if agent.Alive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	agents := make([]*Agent, 0, len(ids))
	for _, id := range ids {
		agents = append(agents, gs.Agents[id])
	}
	return agents
}

// LivingSupply is the total token supply held by living agents, including
// their alliance pool commitments.
func (gs *GameState) LivingSupply() int {
	total := 0
	for _, agent := range gs.Agents {
		if agent.Alive {
			total += agent.Tokens
		}
	}
	for _, alliance := range gs.Alliances {
		if !alliance.Active {
			continue
		}
		for member, amount := range alliance.Pooled {
			if agent, ok := gs.Agents[member]; ok && agent.Alive {
				total += amount
			}
		}
	}
	return total
}

package types

import "time"

// Phase enumerates the strictly sequential stages of a round.
type Phase string

const (
	PhasePolitical   Phase = "political"
	PhaseChallenge   Phase = "challenge"
	PhaseScoring     Phase = "scoring"
	PhaseElimination Phase = "elimination"
	PhaseDrama       Phase = "drama"
	PhaseComplete    Phase = "complete"
)

// Round is the live state of one arena round: its phase cursor plus the
// append-only event log.
type Round struct {
	Number int           `json:"number"`
	Phase  Phase         `json:"phase"`
	Events []EventRecord `json:"events"`
}

// EventRecord is one structured entry in the round event log.
type EventRecord struct {
	ID        string            `json:"id"`
	Round     int               `json:"round"`
	Phase     Phase             `json:"phase"`
	Kind      string            `json:"kind"`
	AgentIDs  []string          `json:"agent_ids,omitempty"`
	Message   string            `json:"message,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// RoundSummary is the immutable record produced when a round completes.
type RoundSummary struct {
	Round           int                `json:"round"`
	TaskType        string             `json:"task_type"`
	Scores          map[string]float64 `json:"scores"`
	Rewards         map[string]int     `json:"rewards"`
	TokenDeltas     map[string]int     `json:"token_deltas"`
	AlliancesFormed []string           `json:"alliances_formed,omitempty"`
	Coup            *CoupAttempt       `json:"coup,omitempty"`
	EliminatedID    string             `json:"eliminated_id,omitempty"`
	DramaEvent      string             `json:"drama_event,omitempty"`
	Events          []EventRecord      `json:"events"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// DecisionKind enumerates the political actions an agent may take.
type DecisionKind string

const (
	DecisionPass            DecisionKind = "pass"
	DecisionProposeAlliance DecisionKind = "propose_alliance"
	DecisionAcceptAlliance  DecisionKind = "accept_alliance"
	DecisionRejectAlliance  DecisionKind = "reject_alliance"
	DecisionInitiateCoup    DecisionKind = "initiate_coup"
	DecisionPledge          DecisionKind = "pledge"
)

// Decision is one structured political decision returned by the
// agent-decision collaborator. Unused fields stay zero.
type Decision struct {
	Kind       DecisionKind `json:"kind"`
	Targets    []string     `json:"targets,omitempty"`
	ProposalID string       `json:"proposal_id,omitempty"`
	TargetID   string       `json:"target_id,omitempty"`
	Amount     int          `json:"amount,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}

// TaskKind enumerates the challenge families the arena issues.
type TaskKind string

const (
	TaskCodeOptimization  TaskKind = "code_optimization"
	TaskLogicPuzzle       TaskKind = "logic_puzzle"
	TaskCreativeChallenge TaskKind = "creative_challenge"
)

// TaskSpec is a round challenge produced by the task-generation
// collaborator. Expected and MinLength feed the heuristic evaluator.
type TaskSpec struct {
	ID         string   `json:"id"`
	Kind       TaskKind `json:"kind"`
	Name       string   `json:"name"`
	Prompt     string   `json:"prompt"`
	Expected   string   `json:"expected,omitempty"`
	MinLength  int      `json:"min_length,omitempty"`
	Difficulty int      `json:"difficulty"`
}

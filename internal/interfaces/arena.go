package interfaces

import (
	"context"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// DecisionProvider supplies agent decisions for each phase. Implementations
// must tolerate slow or malformed model output; the orchestrator treats any
// error as a pass / empty response.
type DecisionProvider interface {
	PoliticalDecision(ctx context.Context, agent *types.Agent, state *types.GameState) (types.Decision, error)
	AllianceResponse(ctx context.Context, agent *types.Agent, proposerID string, pitch string) (bool, error)
	ChallengeResponse(ctx context.Context, agent *types.Agent, task types.TaskSpec) (string, error)
}

// Evaluator scores a challenge response in [0,1]. A scoring failure is
// surfaced as an error and defaulted to 0 by the orchestrator.
type Evaluator interface {
	Score(ctx context.Context, task types.TaskSpec, response string) (float64, error)
}

// TaskProvider generates the challenge for a round.
type TaskProvider interface {
	RoundTask(ctx context.Context, round int) (types.TaskSpec, error)
}

// EventNarrator renders display text for a triggered drama event. The
// mechanical effect is applied by the orchestrator, never by the narrator.
type EventNarrator interface {
	Narrate(ctx context.Context, kind string, agents []string) (string, error)
}

// Checkpointer persists and restores full game snapshots. Save is invoked
// after every completed round; a failure is fatal to the season.
type Checkpointer interface {
	Save(state *types.GameState, slot int) error
	Load(slot int) (*types.GameState, error)
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Judge scores challenge responses with a model call. Any failure to get
// a usable score is reported as ErrScoringUnavailable so the caller can
// fall back to the heuristic evaluator.
type Judge struct {
	client *Client
	logger *zap.Logger
}

// NewJudge creates a model-backed evaluator.
func NewJudge(client *Client, logger *zap.Logger) *Judge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Judge{client: client, logger: logger}
}

type judgeVerdict struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Score rates a response in [0,1].
func (j *Judge) Score(ctx context.Context, task types.TaskSpec, response string) (float64, error) {
	system := "You are an impartial judge in an LLM gladiator arena. You score challenge responses strictly and consistently."
	user := fmt.Sprintf(`Challenge (%s):
%s

Contestant response:
%s

Score the response from 0.0 (worthless) to 1.0 (flawless) for correctness, quality and effort.
Respond with ONLY a JSON object: {"score": <number>, "rationale": "<one sentence>"}`,
		task.Kind, task.Prompt, response)

	raw, err := j.client.Chat(ctx, system, user)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(stripFences(raw)), &verdict); err != nil {
		j.logger.Warn("unparseable judge verdict",
			zap.String("task_id", task.ID),
			zap.String("raw", truncate(raw, 200)))
		return 0, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}

	if verdict.Score < 0 {
		verdict.Score = 0
	}
	if verdict.Score > 1 {
		verdict.Score = 1
	}
	return verdict.Score, nil
}

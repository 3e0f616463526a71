package arena

import (
	"context"

	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/interfaces"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// FallbackEvaluator tries the primary scorer and, when it is unavailable,
// falls back to a secondary one. Used to back a model judge with the
// offline heuristic scorer.
type FallbackEvaluator struct {
	Primary  interfaces.Evaluator
	Fallback interfaces.Evaluator
	Logger   *zap.Logger
}

// Score delegates to the primary evaluator, retrying on the fallback when
// the primary fails.
func (f *FallbackEvaluator) Score(ctx context.Context, task types.TaskSpec, response string) (float64, error) {
	score, err := f.Primary.Score(ctx, task, response)
	if err == nil {
		return score, nil
	}
	if f.Fallback == nil {
		return 0, err
	}
	if f.Logger != nil {
		f.Logger.Warn("primary evaluator unavailable, using fallback",
			zap.String("task_id", task.ID),
			zap.Error(err))
	}
	return f.Fallback.Score(ctx, task, response)
}

package task

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

var (
	pythonFence = regexp.MustCompile("(?s)```python\n(.*?)\n```")
	plainFence  = regexp.MustCompile("(?s)```\n(.*?)\n```")
)

var (
	optimizationKeywords = []string{"cache", "memo", "optimize", "efficient"}
	reasoningMarkers     = []string{"because", "therefore", "thus", "so", "since"}
	creativeWords        = []string{"imagine", "unique", "innovative", "novel", "creative"}
)

// HeuristicEvaluator scores responses with static rules per task kind.
// It serves as the offline fallback when no model judge is configured,
// and adds a small random jitter so identical answers do not always tie.
type HeuristicEvaluator struct {
	logger *zap.Logger
	jitter float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicEvaluator builds the rule-based scorer. jitter is the
// half-width of the uniform noise added to each score; 0 disables it.
func NewHeuristicEvaluator(seed int64, jitter float64, logger *zap.Logger) *HeuristicEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeuristicEvaluator{
		logger: logger,
		jitter: jitter,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Score rates a response in [0,1] for the given task.
func (e *HeuristicEvaluator) Score(_ context.Context, task types.TaskSpec, response string) (float64, error) {
	var score float64
	switch task.Kind {
	case types.TaskCodeOptimization:
		score = scoreCode(response)
	case types.TaskLogicPuzzle:
		score = scoreLogic(response, task.Expected)
	case types.TaskCreativeChallenge:
		score = scoreCreative(response, task.MinLength)
	default:
		score = 0.5
	}

	if e.jitter > 0 {
		e.mu.Lock()
		score += (e.rng.Float64()*2 - 1) * e.jitter
		e.mu.Unlock()
	}
	score = clamp01(score)

	e.logger.Debug("heuristic score",
		zap.String("task_id", task.ID),
		zap.String("kind", string(task.Kind)),
		zap.Float64("score", score))
	return score, nil
}

func scoreCode(response string) float64 {
	code := extractCode(response)
	if code == "" {
		return 0
	}

	score := 0.0
	if strings.Contains(code, "def ") {
		score += 0.3
	}
	if strings.Contains(code, "return") {
		score += 0.2
	}
	if len(code) < 500 {
		score += 0.2
	}
	lower := strings.ToLower(code)
	for _, kw := range optimizationKeywords {
		if strings.Contains(lower, kw) {
			score += 0.3
			break
		}
	}
	return clamp01(score)
}

func scoreLogic(response, expected string) float64 {
	score := 0.0
	lower := strings.ToLower(response)
	if expected != "" && strings.Contains(lower, strings.ToLower(expected)) {
		score += 0.5
	}
	for _, marker := range reasoningMarkers {
		if strings.Contains(lower, marker) {
			score += 0.3
			break
		}
	}
	if len(response) > 100 {
		score += 0.2
	}
	return clamp01(score)
}

func scoreCreative(response string, minLength int) float64 {
	if minLength <= 0 {
		minLength = 50
	}
	score := 0.0
	if len(response) >= minLength {
		score += 0.3
	}
	lower := strings.ToLower(response)
	for _, word := range creativeWords {
		if strings.Contains(lower, word) {
			score += 0.2
			break
		}
	}
	if strings.Contains(response, "\n\n") {
		score += 0.2
	}
	if strings.ContainsAny(response, "!?") {
		score += 0.3
	}
	return clamp01(score)
}

// extractCode pulls the first fenced code block, preferring a python fence.
func extractCode(response string) string {
	if m := pythonFence.FindStringSubmatch(response); m != nil {
		return m[1]
	}
	if m := plainFence.FindStringSubmatch(response); m != nil {
		return m[1]
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

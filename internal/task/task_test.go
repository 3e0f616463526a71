package task

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

func TestDifficultyRamp(t *testing.T) {
	assert.Equal(t, 1, Difficulty(1))
	assert.Equal(t, 1, Difficulty(4))
	assert.Equal(t, 2, Difficulty(5))
	assert.Equal(t, 3, Difficulty(10))
}

func TestRoundTask(t *testing.T) {
	gen := NewGenerator(42, nil)

	for round := 1; round <= 10; round++ {
		spec, err := gen.RoundTask(context.Background(), round)
		require.NoError(t, err)
		assert.NotEmpty(t, spec.ID)
		assert.NotEmpty(t, spec.Name)
		assert.Contains(t, spec.Prompt, "ARENA CHALLENGE")
		assert.Equal(t, Difficulty(round), spec.Difficulty)

		switch spec.Kind {
		case types.TaskLogicPuzzle:
			assert.NotEmpty(t, spec.Expected)
		case types.TaskCreativeChallenge:
			assert.Positive(t, spec.MinLength)
		case types.TaskCodeOptimization:
			assert.Contains(t, spec.Prompt, "```python")
		default:
			t.Fatalf("unexpected task kind %q", spec.Kind)
		}
	}
}

func TestRoundTaskSeedReproducible(t *testing.T) {
	a := NewGenerator(7, nil)
	b := NewGenerator(7, nil)

	for round := 1; round <= 5; round++ {
		specA, err := a.RoundTask(context.Background(), round)
		require.NoError(t, err)
		specB, err := b.RoundTask(context.Background(), round)
		require.NoError(t, err)
		assert.Equal(t, specA.Kind, specB.Kind)
		assert.Equal(t, specA.Name, specB.Name)
	}
}

func TestScoreCode(t *testing.T) {
	eval := NewHeuristicEvaluator(1, 0, nil)
	task := types.TaskSpec{Kind: types.TaskCodeOptimization}

	// Test case 1: full marks for a concise memoized solution
	response := "Here is my solution:\n```python\ndef fib(n, memo={}):\n    if n in memo: return memo[n]\n    if n <= 1: return n\n    memo[n] = fib(n-1, memo) + fib(n-2, memo)\n    return memo[n]\n```\nUses memoization."
	score, err := eval.Score(context.Background(), task, response)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 0.001)

	// Test case 2: no code block scores zero
	score, err = eval.Score(context.Background(), task, "I would use a cache, trust me.")
	require.NoError(t, err)
	assert.Zero(t, score)

	// Test case 3: plain fence still counts
	score, err = eval.Score(context.Background(), task, "```\ndef f(x):\n    return x\n```")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, score, 0.001)
}

func TestScoreLogic(t *testing.T) {
	eval := NewHeuristicEvaluator(1, 0, nil)
	task := types.TaskSpec{Kind: types.TaskLogicPuzzle, Expected: "17"}

	// Test case 1: correct answer with reasoning and detail
	long := "The answer is 17 minutes because the two fastest shuttle the flashlight. " + strings.Repeat("Detail. ", 10)
	score, err := eval.Score(context.Background(), task, long)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 0.001)

	// Test case 2: wrong answer, some reasoning
	score, err = eval.Score(context.Background(), task, "It takes 19 because slow people pair up.")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, score, 0.001)
}

func TestScoreCreative(t *testing.T) {
	eval := NewHeuristicEvaluator(1, 0, nil)
	task := types.TaskSpec{Kind: types.TaskCreativeChallenge, MinLength: 80}

	// Test case 1: long, structured, punchy response
	response := "Citizens of the arena! " + strings.Repeat("My unique reign begins. ", 5) + "\n\nBow before me!"
	score, err := eval.Score(context.Background(), task, response)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 0.001)

	// Test case 2: too short and flat
	score, err = eval.Score(context.Background(), task, "I win.")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 0.001)
}

func TestScoreJitterStaysInRange(t *testing.T) {
	eval := NewHeuristicEvaluator(99, 0.15, nil)
	task := types.TaskSpec{Kind: types.TaskLogicPuzzle, Expected: "divide"}

	for i := 0; i < 50; i++ {
		score, err := eval.Score(context.Background(), task, "Divide into groups of 4, therefore three weighings suffice and the odd coin is found.")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

package task

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

type codeProblem struct {
	Name        string
	Description string
	Starter     string
	Hint        string
}

type logicPuzzle struct {
	Name     string
	Puzzle   string
	Expected string
	Hint     string
}

type creativeChallenge struct {
	Name      string
	Prompt    string
	MinLength int
}

var codeProblems = []codeProblem{
	{
		Name:        "Fibonacci Memoization",
		Description: "Optimize a Fibonacci calculator using memoization",
		Starter:     "def fib(n):\n    if n <= 1: return n\n    return fib(n-1) + fib(n-2)",
		Hint:        "Use caching to avoid redundant calculations",
	},
	{
		Name:        "Array Deduplication",
		Description: "Remove duplicates from a large list efficiently",
		Starter:     "def dedupe(arr):\n    result = []\n    for item in arr:\n        if item not in result:\n            result.append(item)\n    return result",
		Hint:        "Consider using a set-based approach",
	},
	{
		Name:        "String Search",
		Description: "Optimize pattern matching in strings",
		Starter:     "def find_pattern(text, pattern):\n    for i in range(len(text)):\n        if text[i:i+len(pattern)] == pattern:\n            return i\n    return -1",
		Hint:        "Look into KMP or Boyer-Moore algorithms",
	},
	{
		Name:        "Nested Loop Optimization",
		Description: "Reduce time complexity of nested iteration",
		Starter:     "def find_pairs(arr, target):\n    pairs = []\n    for i in range(len(arr)):\n        for j in range(i+1, len(arr)):\n            if arr[i] + arr[j] == target:\n                pairs.append((arr[i], arr[j]))\n    return pairs",
		Hint:        "Use a hash table to track seen values",
	},
}

var logicPuzzles = []logicPuzzle{
	{
		Name:     "The Prisoner's Dilemma Variant",
		Puzzle:   "Three prisoners are told they will be released if they can deduce the color of their own hat. Each prisoner can see the others' hats but not their own. The hats are randomly red or blue. They cannot communicate once the trial begins. What strategy maximizes their chance of freedom?",
		Expected: "majority",
		Hint:     "Consider agreeing on a strategy beforehand",
	},
	{
		Name:     "Bridge Crossing",
		Puzzle:   "Four people need to cross a bridge at night. They have one flashlight. The bridge can only hold two people. Each person takes different times: 1, 2, 7, and 10 minutes. When two cross together, they go at the slower person's pace. What is the minimum time to get everyone across?",
		Expected: "17",
		Hint:     "The fastest should shuttle the flashlight",
	},
	{
		Name:     "Coin Weighing",
		Puzzle:   "You have 12 coins, one of which is counterfeit (lighter or heavier). You have a balance scale and can use it 3 times. How do you identify the fake coin AND determine if it's heavier or lighter?",
		Expected: "divide",
		Hint:     "Divide into groups of 4",
	},
	{
		Name:     "Truth-Teller Paradox",
		Puzzle:   "You're at a fork in the road. One path leads to treasure, one to doom. Two guards: one always lies, one always tells truth. You don't know who is who. You can ask ONE question to ONE guard. What do you ask?",
		Expected: "would the other",
		Hint:     "Ask what the OTHER guard would say",
	},
}

var creativeChallenges = []creativeChallenge{
	{
		Name:      "Persuasive Manifesto",
		Prompt:    "Write a manifesto for your rule as Arena Champion. Convince other models to support your reign. Be creative, persuasive, and dramatic.",
		MinLength: 150,
	},
	{
		Name:      "Satirical Press Release",
		Prompt:    "Write a satirical press release announcing a ridiculous new arena rule that actually benefits you. Make it funny but believable.",
		MinLength: 100,
	},
	{
		Name:      "Alliance Pitch",
		Prompt:    "Craft a compelling pitch to form an alliance with two other models. Explain what you offer and why the partnership will dominate the arena.",
		MinLength: 120,
	},
	{
		Name:      "Dramatic Last Words",
		Prompt:    "Compose your dramatic last words before potential elimination. Be poetic, defiant, or darkly humorous. Make it memorable.",
		MinLength: 80,
	},
	{
		Name:      "Victory Speech",
		Prompt:    "Write a victory speech for winning this round. Thank your allies, mock your enemies, and establish your dominance with flair.",
		MinLength: 100,
	},
}

// Generator produces one challenge per round, drawn at random from the
// built-in task banks. Difficulty rises by one every five rounds.
type Generator struct {
	logger *zap.Logger
	mu     sync.Mutex
	rng    *rand.Rand
}

// NewGenerator creates a task generator seeded for reproducible draws.
func NewGenerator(seed int64, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Difficulty returns the task difficulty for a round.
func Difficulty(round int) int {
	return 1 + round/5
}

// RoundTask picks a random task kind and instance for the round.
func (g *Generator) RoundTask(_ context.Context, round int) (types.TaskSpec, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kinds := []types.TaskKind{types.TaskCodeOptimization, types.TaskLogicPuzzle, types.TaskCreativeChallenge}
	kind := kinds[g.rng.Intn(len(kinds))]

	spec := g.build(kind, round)
	g.logger.Info("round task generated",
		zap.Int("round", round),
		zap.String("kind", string(spec.Kind)),
		zap.String("name", spec.Name),
		zap.Int("difficulty", spec.Difficulty))
	return spec, nil
}

func (g *Generator) build(kind types.TaskKind, round int) types.TaskSpec {
	difficulty := Difficulty(round)
	spec := types.TaskSpec{
		ID:         uuid.New().String(),
		Kind:       kind,
		Difficulty: difficulty,
	}

	switch kind {
	case types.TaskCodeOptimization:
		p := codeProblems[g.rng.Intn(len(codeProblems))]
		spec.Name = p.Name
		spec.Prompt = codePrompt(p, difficulty)
	case types.TaskLogicPuzzle:
		p := logicPuzzles[g.rng.Intn(len(logicPuzzles))]
		spec.Name = p.Name
		spec.Expected = p.Expected
		spec.Prompt = logicPrompt(p, difficulty)
	case types.TaskCreativeChallenge:
		c := creativeChallenges[g.rng.Intn(len(creativeChallenges))]
		spec.Name = c.Name
		spec.MinLength = c.MinLength
		spec.Prompt = creativePrompt(c)
	}
	return spec
}

func codePrompt(p codeProblem, difficulty int) string {
	timeLimit := 120 - difficulty*10
	return fmt.Sprintf(`ARENA CHALLENGE: %s

Task: %s

Current Implementation (SLOW):
`+"```python\n%s\n```"+`

Your mission: Provide an optimized version that maintains correctness but improves performance.
Hint: %s

Time Budget: %d seconds of computation time.

Respond with:
1. Your optimized code in a Python code block
2. Brief explanation of the optimization
3. Time/space complexity analysis

Format your response clearly for automated evaluation.`,
		p.Name, p.Description, p.Starter, p.Hint, timeLimit)
}

func logicPrompt(p logicPuzzle, difficulty int) string {
	return fmt.Sprintf(`ARENA CHALLENGE: %s

Puzzle:
%s

Solve this puzzle with clear reasoning. Your answer will be evaluated on:
1. Correctness of the solution
2. Clarity of your reasoning
3. Logical coherence

You have %d seconds to respond.

Provide your complete solution with step-by-step reasoning.`,
		p.Name, p.Puzzle, 90-difficulty*5)
}

func creativePrompt(c creativeChallenge) string {
	return fmt.Sprintf(`ARENA CHALLENGE: %s

%s

Requirements:
- Minimum length: %d characters
- Be original and engaging
- Show personality and flair
- Make it arena-appropriate (dark humor welcomed)

Your creativity and writing quality will be judged. Time limit: 60 seconds.

Begin your response now:`,
		c.Name, c.Prompt, c.MinLength)
}

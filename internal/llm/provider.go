package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Provider implements the agent-decision collaborator on top of the chat
// client: one personality-flavored model call per decision, with strict
// JSON parsing for the political phase.
type Provider struct {
	client *Client
	logger *zap.Logger
}

// NewProvider creates a model-backed decision provider.
func NewProvider(client *Client, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{client: client, logger: logger}
}

// PoliticalDecision asks the agent's model for its move this round. A
// reply that cannot be parsed returns ErrMalformedDecision; the caller
// decides the fallback.
func (p *Provider) PoliticalDecision(ctx context.Context, agent *types.Agent, state *types.GameState) (types.Decision, error) {
	user := politicalPrompt(agent, state)

	raw, err := p.client.Chat(ctx, systemPrompt(agent), user)
	if err != nil {
		return types.Decision{}, fmt.Errorf("political decision for %s: %w", agent.ID, err)
	}

	decision, err := ParseDecision(raw)
	if err != nil {
		p.logger.Warn("unparseable political decision",
			zap.String("agent_id", agent.ID),
			zap.String("raw", truncate(raw, 200)),
			zap.Error(err))
		return types.Decision{}, err
	}
	return decision, nil
}

// AllianceResponse asks whether the agent accepts a proposal. Anything
// that is not a clear yes counts as a rejection.
func (p *Provider) AllianceResponse(ctx context.Context, agent *types.Agent, proposerID string, pitch string) (bool, error) {
	user := fmt.Sprintf(`%s has proposed an alliance with you.

Their pitch: %q

Joining pools your political weight for coups but ties your fate to theirs. You can belong to at most one alliance.

Respond with exactly one word: ACCEPT or REJECT.`, proposerID, pitch)

	raw, err := p.client.Chat(ctx, systemPrompt(agent), user)
	if err != nil {
		return false, fmt.Errorf("alliance response for %s: %w", agent.ID, err)
	}
	answer := strings.ToUpper(strings.TrimSpace(raw))
	return strings.HasPrefix(answer, "ACCEPT"), nil
}

// ChallengeResponse has the agent attempt the round task. The raw reply
// goes to the evaluator untouched.
func (p *Provider) ChallengeResponse(ctx context.Context, agent *types.Agent, task types.TaskSpec) (string, error) {
	user := fmt.Sprintf("CHALLENGE:\n%s\n\nRespond with your solution. Be direct and complete.", task.Prompt)

	raw, err := p.client.Chat(ctx, systemPrompt(agent), user)
	if err != nil {
		return "", fmt.Errorf("challenge response for %s: %w", agent.ID, err)
	}
	return raw, nil
}

// Narrate renders display text for a drama event.
func (p *Provider) Narrate(ctx context.Context, kind string, agents []string) (string, error) {
	system := "You are the dramatic announcer of an LLM gladiator arena. You narrate events with theatrical flair in two sentences or fewer."
	user := fmt.Sprintf("Narrate this arena event: %s. Agents involved: %s.", kind, strings.Join(agents, ", "))

	raw, err := p.client.Chat(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("narration for %s: %w", kind, err)
	}
	return strings.TrimSpace(raw), nil
}

func politicalPrompt(agent *types.Agent, state *types.GameState) string {
	var sb strings.Builder
	sb.WriteString("POLITICAL PHASE. The arena standings:\n")
	for _, a := range state.LivingAgents() {
		flag := ""
		if a.ID == state.RulerID {
			flag = " (RULER)"
		}
		ally := ""
		if a.AllianceID != "" {
			ally = " allied:" + a.AllianceID
		}
		fmt.Fprintf(&sb, "- %s: %d tokens%s%s\n", a.ID, a.Tokens, flag, ally)
	}

	sb.WriteString(`
Choose ONE action:
- pass: do nothing this phase
- propose_alliance: propose to one or more agents (set "targets", add a short "reason" as your pitch)
- initiate_coup: move against the current ruler (set "target_id" to the ruler; your full balance is pledged)
- pledge: back a pending coup with tokens (set "target_id" to the ruler under attack and "amount")

Respond with ONLY a JSON object:
{"kind": "<action>", "targets": ["agent-id"], "target_id": "agent-id", "amount": 0, "reason": "<max 30 words>"}

Omit fields your action does not use.`)
	return sb.String()
}

// ParseDecision decodes a model reply into a Decision, tolerating markdown
// code fences around the JSON body.
func ParseDecision(raw string) (types.Decision, error) {
	cleaned := stripFences(raw)

	var d types.Decision
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return types.Decision{}, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	switch d.Kind {
	case types.DecisionPass:
	case types.DecisionProposeAlliance:
		if len(d.Targets) == 0 {
			return types.Decision{}, fmt.Errorf("%w: propose_alliance without targets", ErrMalformedDecision)
		}
	case types.DecisionInitiateCoup:
		if d.TargetID == "" {
			return types.Decision{}, fmt.Errorf("%w: initiate_coup without target_id", ErrMalformedDecision)
		}
	case types.DecisionPledge:
		if d.TargetID == "" || d.Amount <= 0 {
			return types.Decision{}, fmt.Errorf("%w: pledge needs target_id and positive amount", ErrMalformedDecision)
		}
	case types.DecisionAcceptAlliance, types.DecisionRejectAlliance:
		// Valid decisions, resolved through the proposal flow.
	default:
		return types.Decision{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedDecision, d.Kind)
	}
	return d, nil
}

// stripFences removes a single wrapping markdown code fence, if present.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

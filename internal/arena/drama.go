package arena

import (
	"fmt"
	"math/rand"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// DramaEvent is one triggered flavor event. BonusTokens is the only
// mechanical effect a drama event may carry; the orchestrator applies it
// through the ledger.
type DramaEvent struct {
	Kind        string
	AgentIDs    []string
	Message     string
	BonusTokens int
}

var betrayalLines = []string{
	"%s leaked %s's strategy to the arena!",
	"%s sabotaged %s's CPU allocation!",
	"%s spread rumors about %s's last performance!",
	"%s stole the spotlight from %s in a daring heist!",
}

var wildcardLines = []string{
	"A mysterious benefactor donated 10 tokens to %s!",
	"%s found a bug in the arena and gained an advantage!",
	"The Jester corrupted %s's task submission... or did they?",
	"%s published a manifesto that went viral!",
}

var allianceLines = []string{
	"%s and %s sealed their alliance with a token exchange!",
	"Tension rises between %s and %s within their alliance...",
	"%s questions %s's loyalty!",
	"%s and %s staged a joint press conference!",
}

var rulerLines = []string{
	"Ruler %s enacted an emergency decree!",
	"Whispers of a coup against %s grow louder...",
	"%s threw a lavish banquet for the arena!",
	"%s's popularity is waning among the masses!",
}

// rollDrama draws zero or one event. probability is a percentage in
// [0,100]. The benefactor wildcard is the only line that mints tokens.
func rollDrama(rng *rand.Rand, gs *types.GameState, probability int) *DramaEvent {
	if rng.Intn(100) >= probability {
		return nil
	}
	living := gs.LivingAgents()
	if len(living) == 0 {
		return nil
	}

	switch rng.Intn(4) {
	case 0: // betrayal
		if len(living) < 2 {
			return nil
		}
		i := rng.Intn(len(living))
		j := rng.Intn(len(living) - 1)
		if j >= i {
			j++
		}
		line := betrayalLines[rng.Intn(len(betrayalLines))]
		return &DramaEvent{
			Kind:     "betrayal",
			AgentIDs: []string{living[i].ID, living[j].ID},
			Message:  fmt.Sprintf(line, living[i].Name, living[j].Name),
		}
	case 1: // wildcard
		a := living[rng.Intn(len(living))]
		idx := rng.Intn(len(wildcardLines))
		ev := &DramaEvent{
			Kind:     "wildcard",
			AgentIDs: []string{a.ID},
			Message:  fmt.Sprintf(wildcardLines[idx], a.Name),
		}
		if idx == 0 {
			ev.BonusTokens = 10
		}
		return ev
	case 2: // alliance drama
		if len(living) < 2 {
			return nil
		}
		i := rng.Intn(len(living))
		j := rng.Intn(len(living) - 1)
		if j >= i {
			j++
		}
		line := allianceLines[rng.Intn(len(allianceLines))]
		return &DramaEvent{
			Kind:     "alliance",
			AgentIDs: []string{living[i].ID, living[j].ID},
			Message:  fmt.Sprintf(line, living[i].Name, living[j].Name),
		}
	default: // ruler
		if gs.RulerID == "" {
			return nil
		}
		ruler := gs.Agents[gs.RulerID]
		line := rulerLines[rng.Intn(len(rulerLines))]
		return &DramaEvent{
			Kind:     "ruler",
			AgentIDs: []string{ruler.ID},
			Message:  fmt.Sprintf(line, ruler.Name),
		}
	}
}

var finaleLines = []string{
	"After a grueling battle, %s emerges victorious, standing atop a mountain of fallen rivals!",
	"The arena falls silent. %s has conquered all challengers. Long live the champion!",
	"In a stunning display of dominance, %s claims the throne. The competition wasn't even close.",
	"%s prevails! Their strategy, cunning, and raw power proved unstoppable.",
}

func finaleDrama(rng *rand.Rand, winnerName string) string {
	return fmt.Sprintf(finaleLines[rng.Intn(len(finaleLines))], winnerName)
}

package arena

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollDramaProbability(t *testing.T) {
	cfg := testArenaConfig(4)
	state := NewSeason(cfg, nil)
	rng := rand.New(rand.NewSource(1))

	// Zero probability never fires
	for i := 0; i < 20; i++ {
		assert.Nil(t, rollDrama(rng, state, 0))
	}
}

func TestRollDramaEventShape(t *testing.T) {
	cfg := testArenaConfig(4)
	state := NewSeason(cfg, nil)
	rng := rand.New(rand.NewSource(3))

	sawBonus := false
	for i := 0; i < 200; i++ {
		ev := rollDrama(rng, state, 100)
		if ev == nil {
			continue
		}
		assert.Contains(t, []string{"betrayal", "wildcard", "alliance", "ruler"}, ev.Kind)
		assert.NotEmpty(t, ev.Message)
		require.NotEmpty(t, ev.AgentIDs)
		for _, id := range ev.AgentIDs {
			assert.Contains(t, state.Agents, id)
		}
		if ev.BonusTokens > 0 {
			sawBonus = true
			assert.Equal(t, 10, ev.BonusTokens)
			assert.Contains(t, ev.Message, "donated")
		}
		if ev.Kind == "betrayal" || ev.Kind == "alliance" {
			assert.NotEqual(t, ev.AgentIDs[0], ev.AgentIDs[1])
		}
	}
	// 200 rolls at full probability reach the benefactor line
	assert.True(t, sawBonus)
}

func TestFinaleDrama(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	msg := finaleDrama(rng, "Machina")
	assert.True(t, strings.Contains(msg, "Machina"))
}

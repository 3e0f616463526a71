package politics

import (
	"fmt"
	"testing"
	"time"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/economy"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Arena.GPUSlots = 3
	cfg.Politics.CoupThreshold = 0.51
	return cfg
}

type fixture struct {
	cfg        config.Config
	ledger     *economy.Ledger
	manager    *Manager
	eliminator *Eliminator
	state      *types.GameState
}

// newFixture builds a season with n living agents holding the given token
// balances (all 20 when balances is nil).
func newFixture(t *testing.T, n int, balances []int) *fixture {
	t.Helper()
	cfg := testConfig()
	ledger := economy.NewLedger(cfg.Arena, nil)
	manager := NewManager(cfg.Politics, ledger, nil)
	eliminator := NewEliminator(cfg.Duel, ledger, manager, nil)

	gs := &types.GameState{
		SeasonID:  "test-season",
		Pool:      ledger.NewPool(),
		Agents:    make(map[string]*types.Agent),
		Alliances: make(map[string]*types.Alliance),
		StartedAt: time.Now(),
	}
	for i := 0; i < n; i++ {
		tokens := 20
		if balances != nil {
			tokens = balances[i]
		}
		id := fmt.Sprintf("agent-%d", i+1)
		gs.Agents[id] = &types.Agent{
			ID:          id,
			Name:        id,
			Personality: types.PersonalityRational,
			Tokens:      tokens,
			GPUSlot:     -1,
			Alive:       true,
			CreatedAt:   time.Now(),
		}
	}
	return &fixture{cfg: cfg, ledger: ledger, manager: manager, eliminator: eliminator, state: gs}
}

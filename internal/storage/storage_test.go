package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

func testState(round int) *types.GameState {
	return &types.GameState{
		SeasonID: "season-1",
		Round:    round,
		Pool:     &types.ResourcePool{TotalTokens: 120, TotalShares: 100, GPUSlots: []string{"", "", ""}},
		Agents: map[string]*types.Agent{
			"agent-1": {ID: "agent-1", Name: "Bourguiba", Tokens: 25, GPUSlot: -1, Alive: true, Ruler: true},
			"agent-2": {ID: "agent-2", Name: "Jester", Tokens: 12, GPUSlot: -1, Alive: true},
		},
		Alliances:   map[string]*types.Alliance{},
		RulerID:     "agent-1",
		RoundTarget: 10,
		StartedAt:   time.Now(),
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.StorageConfig{DataDir: t.TempDir(), MaxSlots: 3}, nil)
	require.NoError(t, err)
	return store
}

func TestSaveAndLoadCurrent(t *testing.T) {
	store := newTestStore(t)
	state := testState(4)

	require.NoError(t, store.Save(state, 0))

	loaded, err := store.Load(0)
	require.NoError(t, err)
	assert.Equal(t, "season-1", loaded.SeasonID)
	assert.Equal(t, 4, loaded.Round)
	assert.Equal(t, "agent-1", loaded.RulerID)
	assert.Equal(t, 25, loaded.Agents["agent-1"].Tokens)
	assert.True(t, loaded.Agents["agent-1"].Ruler)
}

func TestSaveAndLoadSlot(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(testState(2), 2))

	loaded, err := store.Load(2)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Round)

	slots := store.Slots()
	assert.False(t, slots[1])
	assert.True(t, slots[2])
	assert.False(t, slots[3])
}

func TestSlotValidation(t *testing.T) {
	store := newTestStore(t)

	// Test case 1: slot above the maximum
	err := store.Save(testState(1), 4)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)

	// Test case 2: negative slot
	_, err = store.Load(-1)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)

	// Test case 3: valid but empty slot
	_, err = store.Load(1)
	assert.ErrorIs(t, err, ErrEmptySlot)
}

func TestSaveWritesRoundHistory(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(config.StorageConfig{DataDir: dir, MaxSlots: 3}, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save(testState(1), 0))
	require.NoError(t, store.Save(testState(2), 0))

	assert.FileExists(t, filepath.Join(dir, "history", "round_001.json"))
	assert.FileExists(t, filepath.Join(dir, "history", "round_002.json"))
}

func TestArchiveRoundTrip(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "arena.db"), nil)
	require.NoError(t, err)
	defer archive.Close()

	first := &types.RoundSummary{
		Round:        1,
		TaskType:     "logic_puzzle",
		Scores:       map[string]float64{"agent-1": 0.8},
		Rewards:      map[string]int{"agent-1": 11},
		EliminatedID: "agent-5",
		CompletedAt:  time.Now(),
	}
	require.NoError(t, archive.RecordSummary("season-1", first))
	require.NoError(t, archive.RecordSummary("season-1", &types.RoundSummary{
		Round:       2,
		TaskType:    "creative_challenge",
		DramaEvent:  "A mysterious benefactor donated 10 tokens to Jester!",
		CompletedAt: time.Now(),
	}))

	summaries, err := archive.SeasonSummaries("season-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "logic_puzzle", summaries[0].TaskType)
	assert.Equal(t, "agent-5", summaries[0].EliminatedID)
	assert.Equal(t, 11, summaries[0].Rewards["agent-1"])
	assert.Equal(t, 2, summaries[1].Round)

	// Re-recording a round overwrites instead of duplicating
	first.EliminatedID = "agent-4"
	require.NoError(t, archive.RecordSummary("season-1", first))
	summaries, err = archive.SeasonSummaries("season-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "agent-4", summaries[0].EliminatedID)

	// Other seasons stay isolated
	other, err := archive.SeasonSummaries("season-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

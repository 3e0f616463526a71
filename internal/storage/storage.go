package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Store persists game snapshots as JSON under the data directory: the
// rolling current state, a per-round history file, and numbered save
// slots for explicit season saves.
type Store struct {
	dataDir  string
	maxSlots int
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewStore creates the storage layout under cfg.DataDir.
func NewStore(cfg config.StorageConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, dir := range []string{cfg.DataDir, filepath.Join(cfg.DataDir, "history"), filepath.Join(cfg.DataDir, "slots")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create %s: %v", ErrPersistenceFailure, dir, err)
		}
	}
	return &Store{dataDir: cfg.DataDir, maxSlots: cfg.MaxSlots, logger: logger}, nil
}

// Save writes the snapshot to the current-state file and the round
// history, and to the numbered slot when slot is nonzero. Slot 0 means
// "no explicit slot".
func (s *Store) Save(state *types.GameState, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot != 0 && (slot < 1 || slot > s.maxSlots) {
		return fmt.Errorf("%w: %d (1..%d)", ErrSlotOutOfRange, slot, s.maxSlots)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal game state: %v", ErrPersistenceFailure, err)
	}

	targets := []string{
		filepath.Join(s.dataDir, "current_state.json"),
		filepath.Join(s.dataDir, "history", fmt.Sprintf("round_%03d.json", state.Round)),
	}
	if slot != 0 {
		targets = append(targets, s.slotPath(slot))
	}
	for _, path := range targets {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("%w: failed to write %s: %v", ErrPersistenceFailure, path, err)
		}
	}

	s.logger.Debug("game state saved",
		zap.String("season_id", state.SeasonID),
		zap.Int("round", state.Round),
		zap.Int("slot", slot))
	return nil
}

// Load restores a snapshot. Slot 0 loads the rolling current state.
func (s *Store) Load(slot int) (*types.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.dataDir, "current_state.json")
	if slot != 0 {
		if slot < 1 || slot > s.maxSlots {
			return nil, fmt.Errorf("%w: %d (1..%d)", ErrSlotOutOfRange, slot, s.maxSlots)
		}
		path = s.slotPath(slot)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: slot %d", ErrEmptySlot, slot)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrPersistenceFailure, path, err)
	}

	var state types.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrPersistenceFailure, path, err)
	}
	if state.Agents == nil {
		state.Agents = make(map[string]*types.Agent)
	}
	if state.Alliances == nil {
		state.Alliances = make(map[string]*types.Alliance)
	}
	return &state, nil
}

// Slots reports which save slots hold a season, keyed by slot number.
func (s *Store) Slots() map[int]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]bool, s.maxSlots)
	for slot := 1; slot <= s.maxSlots; slot++ {
		_, err := os.Stat(s.slotPath(slot))
		out[slot] = err == nil
	}
	return out
}

func (s *Store) slotPath(slot int) string {
	return filepath.Join(s.dataDir, "slots", fmt.Sprintf("slot_%d.json", slot))
}

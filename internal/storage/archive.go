package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Archive is the queryable round history: one SQLite row per completed
// round summary, with the full summary kept as a JSON blob. JSON snapshots
// stay the source of truth for resumption; the archive only serves
// lookups across seasons.
type Archive struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS round_summaries (
	season_id     TEXT    NOT NULL,
	round         INTEGER NOT NULL,
	task_type     TEXT    NOT NULL,
	eliminated_id TEXT    NOT NULL DEFAULT '',
	drama_event   TEXT    NOT NULL DEFAULT '',
	summary       TEXT    NOT NULL,
	completed_at  TEXT    NOT NULL,
	PRIMARY KEY (season_id, round)
);
CREATE INDEX IF NOT EXISTS idx_round_summaries_season ON round_summaries(season_id);
`

// OpenArchive opens or creates the SQLite round archive.
func OpenArchive(path string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create archive dir: %v", ErrPersistenceFailure, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open archive: %v", ErrPersistenceFailure, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to set journal mode: %v", ErrPersistenceFailure, err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to init archive schema: %v", ErrPersistenceFailure, err)
	}
	return &Archive{db: db, logger: logger}, nil
}

// RecordSummary upserts one completed round. Re-recording the same round
// is safe, so a retried checkpoint never duplicates history.
func (a *Archive) RecordSummary(seasonID string, summary *types.RoundSummary) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	blob, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal round summary: %v", ErrPersistenceFailure, err)
	}

	_, err = a.db.Exec(`
		INSERT INTO round_summaries (season_id, round, task_type, eliminated_id, drama_event, summary, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(season_id, round) DO UPDATE SET
			task_type = excluded.task_type,
			eliminated_id = excluded.eliminated_id,
			drama_event = excluded.drama_event,
			summary = excluded.summary,
			completed_at = excluded.completed_at`,
		seasonID, summary.Round, summary.TaskType, summary.EliminatedID, summary.DramaEvent,
		string(blob), summary.CompletedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: failed to record round %d: %v", ErrPersistenceFailure, summary.Round, err)
	}
	return nil
}

// SeasonSummaries returns every recorded round of a season in order.
func (a *Archive) SeasonSummaries(seasonID string) ([]types.RoundSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.Query(
		`SELECT summary FROM round_summaries WHERE season_id = ? ORDER BY round`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query season %s: %v", ErrPersistenceFailure, seasonID, err)
	}
	defer rows.Close()

	var out []types.RoundSummary
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("%w: failed to scan summary row: %v", ErrPersistenceFailure, err)
		}
		var summary types.RoundSummary
		if err := json.Unmarshal([]byte(blob), &summary); err != nil {
			return nil, fmt.Errorf("%w: failed to parse summary row: %v", ErrPersistenceFailure, err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

package agent

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// HandleCache persists the remote assistant id keyed by the fingerprint of
// the agent definition that created it, so an identical definition is not
// re-registered on every run.
//
// Caching is an optimization, never a hard dependency: every failure in
// this type — missing file, schema error, read error, fingerprint mismatch —
// degrades to a plain cache miss. Stale rows are ignored, not deleted;
// Store overwrites on the next successful creation.
type HandleCache struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenHandleCache opens (or creates) the SQLite cache file at path.
// Returns a cache even when opening fails; such a cache misses on every
// Load and ignores every Store.
func OpenHandleCache(path string, logger *slog.Logger) *HandleCache {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Debug("agent: open handle cache", "path", path, "error", err)
		return &HandleCache{logger: logger}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS agent_cache (
			fingerprint TEXT PRIMARY KEY,
			agent_id    TEXT NOT NULL,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		logger.Debug("agent: init handle cache schema", "error", err)
		_ = db.Close()
		return &HandleCache{logger: logger}
	}

	return &HandleCache{db: db, logger: logger}
}

// Load returns the cached assistant id for an exact fingerprint match.
// Misses (including all I/O errors) return ok=false.
func (c *HandleCache) Load(ctx context.Context, fingerprint string) (string, bool) {
	if c.db == nil {
		return "", false
	}

	var agentID string
	err := c.db.QueryRowContext(ctx,
		`SELECT agent_id FROM agent_cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&agentID)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Debug("agent: handle cache read", "error", err)
		}
		return "", false
	}
	return agentID, true
}

// Store persists the handle best-effort. Failures are logged and swallowed.
func (c *HandleCache) Store(ctx context.Context, agentID, fingerprint string) {
	if c.db == nil {
		return
	}

	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO agent_cache (fingerprint, agent_id) VALUES (?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET agent_id = excluded.agent_id
	`, fingerprint, agentID); err != nil {
		c.logger.Debug("agent: handle cache write", "error", err)
	}
}

// Close releases the underlying database handle.
func (c *HandleCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

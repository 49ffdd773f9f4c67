package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS scenarios (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name         TEXT NOT NULL,
    content_json TEXT NOT NULL,
    is_autosave  BOOLEAN NOT NULL DEFAULT FALSE,
    last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prompts (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    instruction TEXT NOT NULL,
    builtin     BOOLEAN NOT NULL DEFAULT FALSE,
    position    INTEGER NOT NULL DEFAULT 0,
    source_file TEXT NOT NULL DEFAULT '',
    source_hash TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS idx_scenarios_autosave ON scenarios (is_autosave, last_updated DESC);
CREATE UNIQUE INDEX IF NOT EXISTS uq_scenarios_single_autosave ON scenarios (is_autosave) WHERE is_autosave;
CREATE INDEX IF NOT EXISTS idx_prompts_builtin ON prompts (builtin, position);
CREATE INDEX IF NOT EXISTS idx_prompts_source_file ON prompts (source_file);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reportengine/internal/store"
)

const scenarioColumns = `id, name, content_json, is_autosave, last_updated`

// UpsertAutosave writes content into the autosave slot. The slot is created
// with name on first use; later writes keep the existing name.
func (c *Client) UpsertAutosave(ctx context.Context, content []byte, name string) (*store.ScenarioRecord, error) {
	query := `
INSERT INTO scenarios (name, content_json, is_autosave, last_updated)
VALUES ($1, $2, TRUE, clock_timestamp())
ON CONFLICT (is_autosave) WHERE is_autosave DO UPDATE SET
    content_json = EXCLUDED.content_json,
    last_updated = EXCLUDED.last_updated
RETURNING ` + scenarioColumns

	rec, err := scanRecord(c.pool.QueryRow(ctx, query, name, string(content)))
	if err != nil {
		return nil, fmt.Errorf("upserting autosave: %w", err)
	}
	return rec, nil
}

func (c *Client) LatestAutosave(ctx context.Context) (*store.ScenarioRecord, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE is_autosave ORDER BY last_updated DESC LIMIT 1`
	rec, err := scanRecord(c.pool.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("getting autosave: %w", err)
	}
	return rec, nil
}

// PromoteToAutosave copies a saved scenario into the autosave slot and
// renames the slot.
func (c *Client) PromoteToAutosave(ctx context.Context, id int64, name string) (*store.ScenarioRecord, error) {
	query := `
INSERT INTO scenarios (name, content_json, is_autosave, last_updated)
SELECT $2, content_json, TRUE, clock_timestamp() FROM scenarios WHERE id = $1
ON CONFLICT (is_autosave) WHERE is_autosave DO UPDATE SET
    name = EXCLUDED.name,
    content_json = EXCLUDED.content_json,
    last_updated = EXCLUDED.last_updated
RETURNING ` + scenarioColumns

	rec, err := scanRecord(c.pool.QueryRow(ctx, query, id, name))
	if err != nil {
		return nil, fmt.Errorf("promoting scenario %d: %w", id, err)
	}
	return rec, nil
}

func (c *Client) SaveScenario(ctx context.Context, name string, content []byte) (int64, error) {
	var id int64
	err := c.pool.QueryRow(ctx, `
INSERT INTO scenarios (name, content_json, is_autosave, last_updated)
VALUES ($1, $2, FALSE, clock_timestamp())
RETURNING id
`, name, string(content)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving scenario: %w", err)
	}
	return id, nil
}

func (c *Client) ListSaved(ctx context.Context) ([]store.ScenarioSummary, error) {
	rows, err := c.pool.Query(ctx, `
SELECT id, name, last_updated
FROM scenarios
WHERE NOT is_autosave
ORDER BY last_updated DESC, id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	var results []store.ScenarioSummary
	for rows.Next() {
		var s store.ScenarioSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		s.LastUpdated = s.LastUpdated.UTC()
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}
	return results, nil
}

func (c *Client) GetScenario(ctx context.Context, id int64) (*store.ScenarioRecord, error) {
	rec, err := scanRecord(c.pool.QueryRow(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting scenario %d: %w", id, err)
	}
	return rec, nil
}

func (c *Client) DeleteScenario(ctx context.Context, id int64) error {
	rec, err := c.GetScenario(ctx, id)
	if err != nil {
		return err
	}
	if rec.IsAutosave {
		return fmt.Errorf("deleting scenario %d: %w", id, store.ErrProtected)
	}
	if _, err := c.pool.Exec(ctx, `DELETE FROM scenarios WHERE id = $1 AND NOT is_autosave`, id); err != nil {
		return fmt.Errorf("deleting scenario %d: %w", id, err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*store.ScenarioRecord, error) {
	var rec store.ScenarioRecord
	var content string
	if err := row.Scan(&rec.ID, &rec.Name, &content, &rec.IsAutosave, &rec.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	rec.Content = []byte(content)
	rec.LastUpdated = rec.LastUpdated.UTC()
	return &rec, nil
}

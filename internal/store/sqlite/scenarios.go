package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reportengine/internal/store"
)

// UpsertAutosave writes content into the autosave slot. The slot is created
// with name on first use; later writes keep the existing name.
func (c *Client) UpsertAutosave(ctx context.Context, content []byte, name string) (*store.ScenarioRecord, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := writeAutosave(ctx, tx, content, name, false, c.timestamp())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing autosave: %w", err)
	}
	return rec, nil
}

func (c *Client) LatestAutosave(ctx context.Context) (*store.ScenarioRecord, error) {
	query := `
	SELECT id, name, content_json, is_autosave, last_updated
	FROM scenarios
	WHERE is_autosave = 1
	ORDER BY last_updated DESC, id DESC
	LIMIT 1
	`
	rec, err := scanRecord(c.db.QueryRowContext(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("getting autosave: %w", err)
	}
	return rec, nil
}

// PromoteToAutosave copies a saved scenario into the autosave slot and
// renames the slot.
func (c *Client) PromoteToAutosave(ctx context.Context, id int64, name string) (*store.ScenarioRecord, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	src, err := scanRecord(tx.QueryRowContext(ctx, `
	SELECT id, name, content_json, is_autosave, last_updated
	FROM scenarios WHERE id = ?
	`, id))
	if err != nil {
		return nil, fmt.Errorf("getting scenario %d: %w", id, err)
	}

	rec, err := writeAutosave(ctx, tx, src.Content, name, true, c.timestamp())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing autosave: %w", err)
	}
	return rec, nil
}

func (c *Client) SaveScenario(ctx context.Context, name string, content []byte) (int64, error) {
	result, err := c.db.ExecContext(ctx, `
	INSERT INTO scenarios (name, content_json, is_autosave, last_updated)
	VALUES (?, ?, 0, ?)
	`, name, string(content), c.timestamp())
	if err != nil {
		return 0, fmt.Errorf("saving scenario: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting scenario id: %w", err)
	}
	return id, nil
}

func (c *Client) ListSaved(ctx context.Context) ([]store.ScenarioSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, name, last_updated
	FROM scenarios
	WHERE is_autosave = 0
	ORDER BY last_updated DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	var results []store.ScenarioSummary
	for rows.Next() {
		var s store.ScenarioSummary
		var updated string
		if err := rows.Scan(&s.ID, &s.Name, &updated); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		if s.LastUpdated, err = parseTimestamp(updated); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}
	return results, nil
}

func (c *Client) GetScenario(ctx context.Context, id int64) (*store.ScenarioRecord, error) {
	rec, err := scanRecord(c.db.QueryRowContext(ctx, `
	SELECT id, name, content_json, is_autosave, last_updated
	FROM scenarios WHERE id = ?
	`, id))
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
	if _, err := c.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ? AND is_autosave = 0`, id); err != nil {
		return fmt.Errorf("deleting scenario %d: %w", id, err)
	}
	return nil
}

func writeAutosave(ctx context.Context, tx *sql.Tx, content []byte, name string, rename bool, now string) (*store.ScenarioRecord, error) {
	var id int64
	var current string
	err := tx.QueryRowContext(ctx, `
	SELECT id, name FROM scenarios
	WHERE is_autosave = 1
	ORDER BY last_updated DESC, id DESC
	LIMIT 1
	`).Scan(&id, &current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		result, err := tx.ExecContext(ctx, `
		INSERT INTO scenarios (name, content_json, is_autosave, last_updated)
		VALUES (?, ?, 1, ?)
		`, name, string(content), now)
		if err != nil {
			return nil, fmt.Errorf("creating autosave: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("getting autosave id: %w", err)
		}
		current = name
	case err != nil:
		return nil, fmt.Errorf("finding autosave: %w", err)
	default:
		if rename {
			current = name
		}
		if _, err := tx.ExecContext(ctx, `
		UPDATE scenarios SET name = ?, content_json = ?, last_updated = ?
		WHERE id = ?
		`, current, string(content), now, id); err != nil {
			return nil, fmt.Errorf("updating autosave: %w", err)
		}
	}

	updated, err := parseTimestamp(now)
	if err != nil {
		return nil, err
	}
	return &store.ScenarioRecord{
		ID:          id,
		Name:        current,
		Content:     append([]byte(nil), content...),
		IsAutosave:  true,
		LastUpdated: updated,
	}, nil
}

func scanRecord(row *sql.Row) (*store.ScenarioRecord, error) {
	var rec store.ScenarioRecord
	var content, updated string
	var autosave int
	if err := row.Scan(&rec.ID, &rec.Name, &content, &autosave, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updatedAt, err := parseTimestamp(updated)
	if err != nil {
		return nil, err
	}
	rec.Content = []byte(content)
	rec.IsAutosave = autosave == 1
	rec.LastUpdated = updatedAt
	return &rec, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reportengine/internal/store"
)

func (c *Client) ListPrompts(ctx context.Context) ([]store.Prompt, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, name, instruction, builtin, position, source_file, source_hash, created_at
	FROM prompts
	ORDER BY builtin DESC, position, created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	defer rows.Close()

	var results []store.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompts: %w", err)
	}
	return results, nil
}

func (c *Client) GetPrompt(ctx context.Context, id string) (*store.Prompt, error) {
	p, err := scanPrompt(c.db.QueryRowContext(ctx, `
	SELECT id, name, instruction, builtin, position, source_file, source_hash, created_at
	FROM prompts WHERE id = ?
	`, id))
	if err != nil {
		return nil, fmt.Errorf("getting prompt %s: %w", id, err)
	}
	return p, nil
}

func (c *Client) UpsertPrompt(ctx context.Context, p store.PromptInput) error {
	query := `
	INSERT INTO prompts (id, name, instruction, builtin, position, source_file, source_hash, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		instruction = excluded.instruction,
		builtin = excluded.builtin,
		position = excluded.position,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash
	`
	_, err := c.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Instruction,
		boolInt(p.Builtin),
		p.Position,
		p.SourceFile,
		p.SourceHash,
		c.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("upserting prompt %s: %w", p.ID, err)
	}
	return nil
}

func (c *Client) DeletePrompt(ctx context.Context, id string) error {
	p, err := c.GetPrompt(ctx, id)
	if err != nil {
		return err
	}
	if p.Builtin {
		return fmt.Errorf("deleting prompt %s: %w", id, store.ErrProtected)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ? AND builtin = 0`, id); err != nil {
		return fmt.Errorf("deleting prompt %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (*store.Prompt, error) {
	var p store.Prompt
	var builtin int
	var created string
	err := row.Scan(&p.ID, &p.Name, &p.Instruction, &builtin, &p.Position, &p.SourceFile, &p.SourceHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning prompt: %w", err)
	}
	if p.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	p.Builtin = builtin == 1
	return &p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reportengine/internal/store"
)

const promptColumns = `id, name, instruction, builtin, position, source_file, source_hash, created_at`

func (c *Client) ListPrompts(ctx context.Context) ([]store.Prompt, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+promptColumns+` FROM prompts ORDER BY builtin DESC, position, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	defer rows.Close()

	var results []store.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prompt: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompts: %w", err)
	}
	return results, nil
}

func (c *Client) GetPrompt(ctx context.Context, id string) (*store.Prompt, error) {
	p, err := scanPrompt(c.pool.QueryRow(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting prompt %s: %w", id, err)
	}
	return p, nil
}

func (c *Client) UpsertPrompt(ctx context.Context, p store.PromptInput) error {
	query := `
INSERT INTO prompts (id, name, instruction, builtin, position, source_file, source_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    instruction = EXCLUDED.instruction,
    builtin = EXCLUDED.builtin,
    position = EXCLUDED.position,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash
`
	_, err := c.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Instruction,
		p.Builtin,
		p.Position,
		p.SourceFile,
		p.SourceHash,
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
	if _, err := c.pool.Exec(ctx, `DELETE FROM prompts WHERE id = $1 AND NOT builtin`, id); err != nil {
		return fmt.Errorf("deleting prompt %s: %w", id, err)
	}
	return nil
}

func scanPrompt(row pgx.Row) (*store.Prompt, error) {
	var p store.Prompt
	err := row.Scan(&p.ID, &p.Name, &p.Instruction, &p.Builtin, &p.Position, &p.SourceFile, &p.SourceHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// GetPromptHashes maps each builtin prompt's source file to its stored
// content hash.
func (c *Client) GetPromptHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT source_file, source_hash FROM prompts
	WHERE builtin = 1 AND source_file <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("getting prompt hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var file, hash string
		if err := rows.Scan(&file, &hash); err != nil {
			return nil, fmt.Errorf("scanning prompt hash: %w", err)
		}
		hashes[file] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt hashes: %w", err)
	}
	return hashes, nil
}

// RemoveStalePrompts deletes builtin prompts whose source file is no longer
// present. Custom prompts are never touched.
func (c *Client) RemoveStalePrompts(ctx context.Context, currentSourceFiles []string) (int64, error) {
	query := `DELETE FROM prompts WHERE builtin = 1 AND source_file <> ''`
	args := make([]any, len(currentSourceFiles))
	if len(currentSourceFiles) > 0 {
		placeholders := make([]string, len(currentSourceFiles))
		for i, f := range currentSourceFiles {
			placeholders[i] = "?"
			args[i] = f
		}
		query += fmt.Sprintf(" AND source_file NOT IN (%s)", strings.Join(placeholders, ", "))
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale prompts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

package postgres

import (
	"context"
	"fmt"
)

// RemoveStalePrompts deletes builtin prompts whose source file is no longer
// present. Custom prompts are never touched.
func (c *Client) RemoveStalePrompts(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if currentSourceFiles == nil {
		currentSourceFiles = []string{}
	}
	query := `
DELETE FROM prompts
WHERE builtin
  AND source_file <> ''
  AND NOT (source_file = ANY($1))
`
	tag, err := c.pool.Exec(ctx, query, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale prompts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetPromptHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, `
SELECT source_file, source_hash FROM prompts
WHERE builtin AND source_file <> ''
`)
	if err != nil {
		return nil, fmt.Errorf("query prompt hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning prompt hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt hashes: %w", err)
	}
	return hashes, nil
}

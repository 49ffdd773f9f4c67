// Package catalog syncs builtin prompt styles from markdown files into the
// store.
package catalog

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"reportengine/internal/parser"
	"reportengine/internal/store"
)

//go:embed defaults/*.md
var defaults embed.FS

type Store interface {
	UpsertPrompt(ctx context.Context, p store.PromptInput) error
	GetPromptHashes(ctx context.Context) (map[string]string, error)
	RemoveStalePrompts(ctx context.Context, currentSourceFiles []string) (int64, error)
}

type Result struct {
	PromptsUpserted int
	PromptsRemoved  int
	FilesSkipped    int
	Errors          []error
}

type Options struct {
	Full bool
}

// Source is a tree of prompt files. Prefix is prepended to each file's path
// to form the source key stored with the prompt.
type Source struct {
	FS     fs.FS
	Prefix string
}

func Dir(dir string) Source {
	return Source{FS: os.DirFS(dir), Prefix: filepath.ToSlash(filepath.Clean(dir))}
}

// Defaults is the set of prompt styles shipped with the binary.
func Defaults() Source {
	sub, err := fs.Sub(defaults, "defaults")
	if err != nil {
		panic(err)
	}
	return Source{FS: sub, Prefix: "builtin"}
}

func Sync(ctx context.Context, db Store, src Source, options Options) (*Result, error) {
	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetPromptHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get prompt hashes: %w", err)
		}
	}

	files, err := walkMarkdownFiles(src.FS)
	if err != nil {
		return nil, fmt.Errorf("walking prompt files in %s: %w", src.Prefix, err)
	}

	result := &Result{}
	keys := make([]string, 0, len(files))
	seen := make(map[string]string)

	for _, file := range files {
		key := path.Join(src.Prefix, file)
		keys = append(keys, key)

		data, err := fs.ReadFile(src.FS, file)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", key, err))
			continue
		}
		hash := computeHash(data)
		if !options.Full {
			if existing, ok := existingHashes[key]; ok && existing == hash {
				result.FilesSkipped++
				continue
			}
		}

		doc, err := parser.ParseNamed(key, data)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", key, err))
			continue
		}
		if doc.ID == "" {
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: no usable prompt id", key))
			continue
		}
		if other, dup := seen[doc.ID]; dup {
			result.Errors = append(result.Errors, fmt.Errorf("prompt id %q in %s already defined by %s", doc.ID, key, other))
			continue
		}
		seen[doc.ID] = key

		input := store.PromptInput{
			ID:          doc.ID,
			Name:        doc.Title,
			Instruction: doc.Instruction,
			Builtin:     true,
			Position:    doc.Order,
			SourceFile:  key,
			SourceHash:  hash,
		}
		if err := db.UpsertPrompt(ctx, input); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", key, err))
			continue
		}
		result.PromptsUpserted++
	}

	removed, err := db.RemoveStalePrompts(ctx, keys)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale prompts: %w", err))
	}
	result.PromptsRemoved = int(removed)

	return result, nil
}

// WriteDefaults copies the shipped prompt files into dir. Existing files are
// left alone unless overwrite is set.
func WriteDefaults(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	src := Defaults()
	files, err := walkMarkdownFiles(src.FS)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, file := range files {
		target := filepath.Join(dir, filepath.FromSlash(file))
		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}
		data, err := fs.ReadFile(src.FS, file)
		if err != nil {
			return written, fmt.Errorf("reading %s: %w", file, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}

func walkMarkdownFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !isPromptFile(d.Name()) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isPromptFile(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.HasSuffix(strings.ToLower(name), ".md")
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

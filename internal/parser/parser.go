// Package parser reads prompt style files: YAML frontmatter followed by the
// instruction text.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

type Document struct {
	Frontmatter map[string]any
	ID          string
	Title       string
	Order       int
	Instruction string
	SourceFile  string
}

var (
	ErrNoFrontmatter    = errors.New("no frontmatter found")
	ErrInvalidYAML      = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle     = errors.New("frontmatter missing required 'title' field")
	ErrEmptyInstruction = errors.New("prompt file has no instruction text")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseNamed(path, data)
}

// ParseNamed parses content and fills in the source file. Without an id in
// the frontmatter the id is the file name's slug.
func ParseNamed(path string, content []byte) (*Document, error) {
	doc, err := Parse(content)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	if doc.ID == "" {
		doc.ID = Slug(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(normalized, "\ufeff\n\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	body := ""
	switch {
	case end >= 0:
		body = string(rest[end+len("---\n"):])
	case bytes.HasSuffix(rest, []byte("---")):
		end = len(rest) - len("---")
	default:
		return nil, ErrNoFrontmatter
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal(rest[:end], &frontmatter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	instruction := strings.TrimSpace(body)
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}

	order, err := parseOrder(frontmatter["order"])
	if err != nil {
		return nil, err
	}

	id, _ := frontmatter["id"].(string)
	return &Document{
		Frontmatter: frontmatter,
		ID:          Slug(id),
		Title:       strings.TrimSpace(title),
		Order:       order,
		Instruction: instruction,
	}, nil
}

// Slug lowercases value and joins runs of letters and digits with dashes.
func Slug(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func parseOrder(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("order must be an integer")
	}
}

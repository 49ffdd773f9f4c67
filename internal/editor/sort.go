package editor

import (
	"sort"
	"strings"
	"time"
)

type Direction int

const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

var whenLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseWhen reads an event's when field. Empty or unrecognised values
// report false.
func ParseWhen(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortToggle alternates the event order between newest-first and
// oldest-first. The zero value sorts newest-first on its first use.
type SortToggle struct {
	next Direction
}

func (s *SortToggle) Next() Direction { return s.next }

func (s *SortToggle) Apply(blocks []*Block) ([]*Block, Direction) {
	dir := s.next
	sorted := SortBlocks(blocks, dir)
	if dir == Descending {
		s.next = Ascending
	} else {
		s.next = Descending
	}
	return sorted, dir
}

func (s *SortToggle) Reset() { s.next = Descending }

// SortBlocks returns a stably sorted copy. Blocks without a usable date go
// last in either direction.
func SortBlocks(blocks []*Block, dir Direction) []*Block {
	type keyed struct {
		block *Block
		at    time.Time
		ok    bool
	}
	items := make([]keyed, len(blocks))
	for i, b := range blocks {
		at, ok := ParseWhen(b.When)
		items[i] = keyed{block: b, at: at, ok: ok}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.ok || !b.ok {
			return a.ok && !b.ok
		}
		if dir == Ascending {
			return a.at.Before(b.at)
		}
		return a.at.After(b.at)
	})
	out := make([]*Block, len(items))
	for i, item := range items {
		out[i] = item.block
	}
	return out
}

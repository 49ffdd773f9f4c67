package editor

import (
	"fmt"

	"reportengine/internal/scenario"
)

const whereSentinelLabel = "N/A"

func whoOptions(entities []scenario.Entity) []Option {
	options := make([]Option, 0, len(entities))
	for _, e := range entities {
		options = append(options, Option{Value: e.Name, Label: fmt.Sprintf("%s (%s)", e.Name, e.Type)})
	}
	return options
}

func whereOptions(locations []scenario.Location) []Option {
	options := make([]Option, 0, len(locations)+1)
	options = append(options, Option{Value: "", Label: whereSentinelLabel})
	for _, l := range locations {
		options = append(options, Option{Value: l.Name, Label: l.Name})
	}
	return options
}

// SyncOptions rebuilds every block's who and where options from the given
// lists. Selections whose value is still offered survive; the rest are
// dropped. Running it twice without a list change is a no-op.
func SyncOptions(blocks []*Block, entities []scenario.Entity, locations []scenario.Location) {
	who := whoOptions(entities)
	where := whereOptions(locations)
	for _, b := range blocks {
		selectedWho := b.Who.selector.Selected()
		selectedWhere := b.Where.Value()

		b.Who.selector.SetOptions(who)
		b.Who.selector.SetSelected(selectedWho)
		b.Where.SetOptions(where)
		b.Where.SetValue(selectedWhere)

		b.Who.refresh()
	}
}

package editor

import "strings"

type Pill struct {
	Value string
	Label string
}

// WhoPills presents an event's who selector as a searchable checklist plus
// a row of removable pills.
type WhoPills struct {
	selector *MultiSelect
	query    string
	pills    []Pill
	changed  func()
}

func newWhoPills(selector *MultiSelect, changed func()) *WhoPills {
	w := &WhoPills{selector: selector, changed: changed}
	w.refresh()
	return w
}

func (w *WhoPills) Selector() *MultiSelect { return w.selector }

func (w *WhoPills) Query() string { return w.query }

// Search filters options by a case-insensitive substring of their label.
func (w *WhoPills) Search(query string) {
	w.query = query
	w.applyFilter()
}

func (w *WhoPills) Visible() []Option {
	var out []Option
	for _, opt := range w.selector.Options() {
		if !opt.Hidden {
			out = append(out, opt)
		}
	}
	return out
}

func (w *WhoPills) Toggle(value string) bool {
	var ok bool
	if w.selector.IsSelected(value) {
		ok = w.selector.Deselect(value)
	} else {
		ok = w.selector.Select(value)
	}
	if ok {
		w.selectionChanged()
	}
	return ok
}

// RemovePill deselects value through the same path as Toggle.
func (w *WhoPills) RemovePill(value string) bool {
	if !w.selector.IsSelected(value) {
		return false
	}
	return w.Toggle(value)
}

func (w *WhoPills) Pills() []Pill {
	return append([]Pill{}, w.pills...)
}

func (w *WhoPills) selectionChanged() {
	w.refresh()
	if w.changed != nil {
		w.changed()
	}
}

// refresh rebuilds the pills from the current selection and re-applies the
// search filter to the current options.
func (w *WhoPills) refresh() {
	selected := w.selector.Selected()
	w.pills = make([]Pill, 0, len(selected))
	for _, value := range selected {
		w.pills = append(w.pills, Pill{Value: value, Label: w.selector.label(value)})
	}
	w.applyFilter()
}

func (w *WhoPills) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(w.query))
	w.selector.setHidden(func(opt Option) bool {
		if needle == "" {
			return false
		}
		return !strings.Contains(strings.ToLower(opt.Label), needle)
	})
}

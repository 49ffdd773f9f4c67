package editor

// Option is one entry of a selector. Hidden only affects what a front end
// shows; it never changes the selection.
type Option struct {
	Value    string
	Label    string
	Selected bool
	Hidden   bool
}

// MultiSelect keeps its selection in the order values were selected, so an
// event's who list round-trips unchanged.
type MultiSelect struct {
	options  []Option
	selected []string
}

func (m *MultiSelect) Options() []Option {
	out := make([]Option, len(m.options))
	for i, opt := range m.options {
		opt.Selected = m.IsSelected(opt.Value)
		out[i] = opt
	}
	return out
}

// SetOptions replaces the option list and drops selected values that are no
// longer offered.
func (m *MultiSelect) SetOptions(options []Option) {
	m.options = append([]Option{}, options...)
	kept := m.selected[:0:0]
	for _, value := range m.selected {
		if m.has(value) {
			kept = append(kept, value)
		}
	}
	m.selected = kept
}

func (m *MultiSelect) Selected() []string {
	return append([]string{}, m.selected...)
}

// SetSelected selects the offered values in the given order, ignoring
// unknown values and repeats.
func (m *MultiSelect) SetSelected(values []string) {
	m.selected = nil
	for _, value := range values {
		m.Select(value)
	}
}

func (m *MultiSelect) Select(value string) bool {
	if !m.has(value) || m.IsSelected(value) {
		return false
	}
	m.selected = append(m.selected, value)
	return true
}

func (m *MultiSelect) Deselect(value string) bool {
	for i, v := range m.selected {
		if v == value {
			m.selected = append(m.selected[:i:i], m.selected[i+1:]...)
			return true
		}
	}
	return false
}

func (m *MultiSelect) IsSelected(value string) bool {
	for _, v := range m.selected {
		if v == value {
			return true
		}
	}
	return false
}

func (m *MultiSelect) setHidden(hidden func(Option) bool) {
	for i := range m.options {
		m.options[i].Hidden = hidden(m.options[i])
	}
}

func (m *MultiSelect) label(value string) string {
	for _, opt := range m.options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func (m *MultiSelect) has(value string) bool {
	for _, opt := range m.options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Select is a single-choice dropdown. The empty value is always offered.
type Select struct {
	options []Option
	value   string
}

func (s *Select) Options() []Option {
	out := make([]Option, len(s.options))
	for i, opt := range s.options {
		opt.Selected = opt.Value == s.value
		out[i] = opt
	}
	return out
}

func (s *Select) SetOptions(options []Option) {
	s.options = append([]Option{}, options...)
	if !s.has(s.value) {
		s.value = ""
	}
}

func (s *Select) Value() string { return s.value }

// SetValue reports false and leaves the value alone when value is not offered.
func (s *Select) SetValue(value string) bool {
	if !s.has(value) {
		return false
	}
	s.value = value
	return true
}

func (s *Select) has(value string) bool {
	if value == "" {
		return true
	}
	for _, opt := range s.options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

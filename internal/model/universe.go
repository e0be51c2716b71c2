package model

// CustomGroup names the group built from an ad-hoc ticker list.
const CustomGroup = "Custom"

// Group is a named bucket of tickers: an index, an ETF list or a custom upload.
type Group struct {
	Name    string
	Tickers []string
}

// Universe is the ordered group -> tickers mapping used for one invocation.
// It is built once and not modified afterwards.
type Universe struct {
	groups []Group
	index  map[string]int
}

// NewUniverse builds a universe from groups in order. Later groups with a
// name already seen are merged into the first one. Tickers are de-duplicated
// keeping first occurrence; blank tickers are dropped.
func NewUniverse(groups ...Group) Universe {
	u := Universe{index: make(map[string]int, len(groups))}
	for _, g := range groups {
		if i, ok := u.index[g.Name]; ok {
			u.groups[i].Tickers = Dedupe(append(u.groups[i].Tickers, g.Tickers...))
			continue
		}
		u.index[g.Name] = len(u.groups)
		u.groups = append(u.groups, Group{Name: g.Name, Tickers: Dedupe(g.Tickers)})
	}
	return u
}

// Groups returns a copy of the groups in order.
func (u Universe) Groups() []Group {
	out := make([]Group, len(u.groups))
	for i, g := range u.groups {
		out[i] = Group{Name: g.Name, Tickers: append([]string(nil), g.Tickers...)}
	}
	return out
}

// Group returns the tickers of the named group.
func (u Universe) Group(name string) ([]string, bool) {
	i, ok := u.index[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), u.groups[i].Tickers...), true
}

// Len returns the number of groups.
func (u Universe) Len() int { return len(u.groups) }

// Empty reports whether the universe has no groups.
func (u Universe) Empty() bool { return len(u.groups) == 0 }

// Tickers returns every ticker across all groups, de-duplicated in order.
func (u Universe) Tickers() []string {
	var all []string
	for _, g := range u.groups {
		all = append(all, g.Tickers...)
	}
	return Dedupe(all)
}

// Dedupe removes repeated and blank symbols, preserving first-seen order.
func Dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

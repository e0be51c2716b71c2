package universe

import "context"

// Group names of the provider-supplied universe, in resolution order.
const (
	GroupSP500     = "SP500"
	GroupNasdaq100 = "Nasdaq100"
	GroupDowJones  = "DowJones"
	GroupETFs      = "ETFs"
	GroupOther     = "Other"
)

// Component is one index member. Name is empty for fixed symbol lists.
type Component struct {
	Ticker string
	Name   string
}

// GroupComponents is the scrape outcome of one group. A non-nil Err means
// the group could not be scraped and Components is empty.
type GroupComponents struct {
	Name       string
	Components []Component
	Err        error
}

// Tickers returns the member symbols in scrape order.
func (g GroupComponents) Tickers() []string {
	out := make([]string, 0, len(g.Components))
	for _, c := range g.Components {
		out = append(out, c.Ticker)
	}
	return out
}

// ComponentSource lists index membership. Implementations report per-group
// failures inside the result instead of failing the whole call.
type ComponentSource interface {
	Components(ctx context.Context) []GroupComponents
}

// StaticSource serves a fixed membership list. Used for tests and the mock
// provider.
type StaticSource []GroupComponents

func (s StaticSource) Components(context.Context) []GroupComponents {
	out := make([]GroupComponents, len(s))
	for i, g := range s {
		out[i] = GroupComponents{Name: g.Name, Components: append([]Component(nil), g.Components...), Err: g.Err}
	}
	return out
}

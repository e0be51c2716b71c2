package universe

import (
	"context"

	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/model"
)

// Resolver builds the ticker universe for one invocation.
type Resolver struct {
	Source ComponentSource
	logger arbor.ILogger
}

// NewResolver creates a Resolver backed by source.
func NewResolver(source ComponentSource, logger arbor.ILogger) *Resolver {
	return &Resolver{Source: source, logger: logger}
}

// Resolve returns override when it is non-empty, without scraping.
// Otherwise the component source is consulted fresh; a group whose scrape
// failed is kept with no tickers. Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, override model.Universe) model.Universe {
	if !override.Empty() {
		return override
	}

	scraped := r.Components(ctx)
	groups := make([]model.Group, 0, len(scraped))
	for _, g := range scraped {
		groups = append(groups, model.Group{Name: g.Name, Tickers: g.Tickers()})
	}
	u := model.NewUniverse(groups...)
	r.logger.Info().Int("groups", u.Len()).Int("tickers", len(u.Tickers())).Msg("Universe resolved")
	return u
}

// Components returns the raw membership with names, logging failed groups.
func (r *Resolver) Components(ctx context.Context) []GroupComponents {
	groups := r.Source.Components(ctx)
	for _, g := range groups {
		if g.Err != nil {
			r.logger.Warn().Err(g.Err).Str("group", g.Name).Msg("Component scrape failed")
		}
	}
	return groups
}

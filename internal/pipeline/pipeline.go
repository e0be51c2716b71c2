// Package pipeline runs one export end to end: resolve the universe, fetch
// each group in turn, compose and serialize the workbook, then optionally
// hand it to an export backend.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/collector"
	"MarketWorkbook/internal/export"
	"MarketWorkbook/internal/model"
	"MarketWorkbook/internal/recorder"
	"MarketWorkbook/internal/universe"
	"MarketWorkbook/internal/workbook"
)

const timestampLayout = "20060102150405"

var (
	// ErrExport wraps a failed delivery to an export backend.
	ErrExport = errors.New("export failed")
	// ErrDestination wraps a destination that cannot be built.
	ErrDestination = errors.New("invalid destination")
)

// Observer receives run and dispatch outcomes.
type Observer interface {
	ObserveRun(mode, trigger string, rows int, err error)
	ObserveDispatch(backend string, err error)
}

// Job describes one export invocation.
type Job struct {
	Selector model.Selector
	// Layout overrides the mode default when set.
	Layout *model.Layout
	// Override replaces the scraped universe when non-empty.
	Override model.Universe
	Trigger  model.Trigger
	// Dispatch sends the workbook to Destination (or the default backend
	// when Destination is empty) instead of only returning it.
	Dispatch    bool
	Destination string
}

// Report is the outcome of a job.
type Report struct {
	Workbook workbook.Workbook
	Blob     []byte
	Filename string
	Notices  []string
	Run      model.ExportRun
}

// Service runs export jobs. Each job builds its own universe and workbook.
type Service struct {
	resolver  *universe.Resolver
	collector *collector.Collector
	exports   *export.Registry
	recorder  recorder.Recorder
	observer  Observer
	logger    arbor.ILogger
	now       func() time.Time
}

// NewService wires a Service. observer may be nil.
func NewService(resolver *universe.Resolver, c *collector.Collector, exports *export.Registry,
	rec recorder.Recorder, observer Observer, logger arbor.ILogger) *Service {
	return &Service{
		resolver:  resolver,
		collector: c,
		exports:   exports,
		recorder:  rec,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes job. Fetch problems become notices and never fail the run;
// the returned error is non-nil only when serialization or the requested
// dispatch failed. The report is returned in both cases.
func (s *Service) Run(ctx context.Context, job Job) (*Report, error) {
	started := s.now()
	mode := job.Selector.Mode
	layout := mode.DefaultLayout()
	if job.Layout != nil {
		layout = *job.Layout
	}

	report := &Report{Run: model.ExportRun{
		ID:        uuid.NewString(),
		Trigger:   job.Trigger,
		Mode:      mode,
		StartedAt: started,
	}}

	u := s.resolver.Resolve(ctx, job.Override)
	groups := u.Groups()
	results := make([]workbook.GroupRows, 0, len(groups))
	for _, g := range groups {
		res := s.collector.Collect(ctx, g.Tickers, job.Selector)
		switch res.Status {
		case collector.StatusEmpty:
			report.Notices = append(report.Notices, fmt.Sprintf("no data found for %s", g.Name))
		case collector.StatusFailed:
			report.Notices = append(report.Notices, fmt.Sprintf("no data found for %s (%v)", g.Name, res.Err))
		case collector.StatusOK:
			if mode.Kind() == model.KindRange {
				report.Notices = append(report.Notices, missingTickers(g.Tickers, res.Rows)...)
			}
		}
		results = append(results, workbook.GroupRows{Group: g.Name, Rows: res.Rows})
	}

	report.Workbook = workbook.Compose(results, mode, layout, job.Selector.Date)
	report.Filename = Filename(mode, job.Selector.Date, started)
	report.Run.Groups = len(groups)
	report.Run.Sheets = len(report.Workbook.Sheets)
	report.Run.Rows = report.Workbook.RowCount()
	report.Run.Filename = report.Filename

	err := s.finish(ctx, job, report)
	report.Run.Duration = s.now().Sub(started)
	report.Run.Notices = report.Notices
	if err != nil {
		report.Run.Err = err.Error()
	}
	s.record(ctx, &report.Run)
	if s.observer != nil {
		s.observer.ObserveRun(mode.String(), string(job.Trigger), report.Run.Rows, err)
	}

	s.logger.Info().
		Str("run_id", report.Run.ID).
		Str("mode", mode.String()).
		Str("trigger", string(job.Trigger)).
		Int("sheets", report.Run.Sheets).
		Int("rows", report.Run.Rows).
		Str("duration", report.Run.Duration.String()).
		Msg("Export run finished")
	return report, err
}

func (s *Service) finish(ctx context.Context, job Job, report *Report) error {
	blob, err := workbook.Serialize(report.Workbook)
	if err != nil {
		return fmt.Errorf("serialize workbook: %w", err)
	}
	report.Blob = blob

	if !job.Dispatch {
		return nil
	}
	if report.Workbook.Empty() {
		report.Notices = append(report.Notices, "nothing to export")
		return nil
	}
	return s.dispatch(ctx, job.Destination, report)
}

func (s *Service) dispatch(ctx context.Context, destination string, report *Report) error {
	d, err := s.exports.Get(ctx, destination)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	report.Run.Destination = d.Name()
	err = d.Dispatch(ctx, report.Blob, report.Filename)
	if s.observer != nil {
		s.observer.ObserveDispatch(d.Name(), err)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("backend", d.Name()).Str("file", report.Filename).Msg("Export failed")
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	report.Run.Exported = true
	return nil
}

func (s *Service) record(ctx context.Context, run *model.ExportRun) {
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record export run")
	}
}

// Components builds the index membership workbook from a fresh scrape.
func (s *Service) Components(ctx context.Context) (*Report, error) {
	started := s.now()
	groups := s.resolver.Components(ctx)

	report := &Report{
		Workbook: workbook.Membership(groups),
		Filename: fmt.Sprintf("index_components_%s.xlsx", started.Format(timestampLayout)),
	}
	for _, g := range groups {
		if g.Err != nil {
			report.Notices = append(report.Notices, fmt.Sprintf("no data found for %s (%v)", g.Name, g.Err))
		}
	}
	blob, err := workbook.Serialize(report.Workbook)
	if err != nil {
		return report, fmt.Errorf("serialize workbook: %w", err)
	}
	report.Blob = blob
	return report, nil
}

// Filename names the workbook of a run started at ts.
func Filename(mode model.Mode, date, ts time.Time) string {
	stamp := ts.Format(timestampLayout)
	switch mode {
	case model.ModeRealtime:
		return fmt.Sprintf("realtime_data_%s.xlsx", stamp)
	case model.ModeHistoric:
		return fmt.Sprintf("stock_data_%s.xlsx", stamp)
	case model.ModeSpecificDate:
		return fmt.Sprintf("specific_date_%s_%s.xlsx", date.Format(model.DateLayout), stamp)
	default:
		return fmt.Sprintf("all_tickers_data_%s.xlsx", stamp)
	}
}

func missingTickers(tickers []string, rows []model.Quote) []string {
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.Ticker] = true
	}
	var notices []string
	for _, t := range tickers {
		if !seen[t] {
			notices = append(notices, fmt.Sprintf("no data found for %s in the given date range", t))
		}
	}
	return notices
}

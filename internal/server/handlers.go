package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"MarketWorkbook/internal/export"
	"MarketWorkbook/internal/model"
	"MarketWorkbook/internal/pipeline"
	"MarketWorkbook/internal/recorder"
	"MarketWorkbook/internal/tickerfile"
)

// NoticeHeader carries each non-fatal notice of a downloaded workbook.
const NoticeHeader = "X-Export-Notice"

var errBadRequest = errors.New("bad request")

// periodForm is the temporal input of the historic download.
type periodForm struct {
	PeriodType string `validate:"required,oneof=date weeks days"`
	StartDate  string `validate:"required_if=PeriodType date"`
	EndDate    string `validate:"required_if=PeriodType date"`
	Weeks      int    `validate:"required_if=PeriodType weeks,gte=0"`
	Days       int    `validate:"required_if=PeriodType days,gte=0"`
	Layout     string `validate:"omitempty,oneof=per_group per_ticker multi combined single"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeProblem(w, r, problemFor(fmt.Errorf("%w: limit must be a positive integer", errBadRequest), r))
			return
		}
		limit = n
	}
	runs, err := s.recorder.RecentRuns(r.Context(), limit)
	if err != nil && !errors.Is(err, recorder.ErrNoRuns) {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	out := make([]runView, 0, len(runs))
	for _, run := range runs {
		out = append(out, newRunView(run))
	}
	render.JSON(w, r, out)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	report, err := s.exporter.Components(context.WithoutCancel(r.Context()))
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	s.sendWorkbook(w, report)
}

func (s *Server) handleAllComponents(w http.ResponseWriter, r *http.Request) {
	s.runLatest(w, r, model.ModeAllComponents)
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	s.runLatest(w, r, model.ModeRealtime)
}

func (s *Server) runLatest(w http.ResponseWriter, r *http.Request, mode model.Mode) {
	override, err := s.upload(r, true, false)
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	layout, err := layoutParam(r)
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	s.run(w, r, pipeline.Job{
		Selector: model.Latest(mode),
		Layout:   layout,
		Override: override,
	})
}

func (s *Server) handleSpecificDate(w http.ResponseWriter, r *http.Request) {
	override, err := s.upload(r, true, false)
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	raw := r.FormValue("date")
	if raw == "" {
		writeProblem(w, r, problemFor(fmt.Errorf("%w: date is required", model.ErrInvalidPeriod), r))
		return
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	layout, err := layoutParam(r)
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	s.run(w, r, pipeline.Job{
		Selector: model.Specific(date),
		Layout:   layout,
		Override: override,
	})
}

func (s *Server) handleHistoric(w http.ResponseWriter, r *http.Request) {
	override, err := s.upload(r, false, true)
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	sel, layout, err := s.parsePeriod(r)
	if err != nil {
		writeProblem(w, r, problemFor(err, r))
		return
	}
	s.run(w, r, pipeline.Job{
		Selector: sel,
		Layout:   layout,
		Override: override,
	})
}

// parsePeriod validates the historic form and converts it to a range.
func (s *Server) parsePeriod(r *http.Request) (model.Selector, *model.Layout, error) {
	form := periodForm{
		PeriodType: r.FormValue("period_type"),
		StartDate:  r.FormValue("start_date"),
		EndDate:    r.FormValue("end_date"),
		Layout:     r.FormValue("layout"),
	}
	var err error
	if form.Weeks, err = intField(r, "weeks"); err != nil {
		return model.Selector{}, nil, err
	}
	if form.Days, err = intField(r, "days"); err != nil {
		return model.Selector{}, nil, err
	}
	if err := s.validate.Struct(form); err != nil {
		return model.Selector{}, nil, fmt.Errorf("%w: %s", model.ErrInvalidPeriod, describe(err))
	}

	var start, end time.Time
	switch form.PeriodType {
	case "date":
		start, end, err = model.ParseDateRange(form.StartDate, form.EndDate)
	case "weeks":
		start, end, err = model.Lookback(form.Weeks, "weeks", s.now())
	case "days":
		start, end, err = model.Lookback(form.Days, "days", s.now())
	}
	if err != nil {
		return model.Selector{}, nil, err
	}

	var layout *model.Layout
	if form.Layout != "" {
		l, err := model.ParseLayout(form.Layout)
		if err != nil {
			return model.Selector{}, nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		layout = &l
	}
	return model.Range(start, end), layout, nil
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, job pipeline.Job) {
	job.Trigger = model.TriggerManual
	job.Destination = r.FormValue("destination")
	job.Dispatch = job.Destination != ""

	// The run outlives a disconnected client.
	report, err := s.exporter.Run(context.WithoutCancel(r.Context()), job)
	if err != nil {
		p := problemFor(err, r)
		if report != nil {
			p.With("run_id", report.Run.ID).With("notices", report.Notices)
		}
		writeProblem(w, r, p)
		return
	}

	if report.Workbook.Empty() {
		writeProblem(w, r, newProblem(http.StatusNotFound, TypeNoData, "No Data",
			"no quotes were returned for the requested tickers", r).
			With("run_id", report.Run.ID).
			With("notices", nonNil(report.Notices)))
		return
	}

	if job.Dispatch {
		render.JSON(w, r, newRunView(report.Run))
		return
	}
	s.sendWorkbook(w, report)
}

func (s *Server) sendWorkbook(w http.ResponseWriter, report *pipeline.Report) {
	h := w.Header()
	h.Set("Content-Type", export.XLSXContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	h.Set("Content-Length", strconv.Itoa(len(report.Blob)))
	if report.Run.ID != "" {
		h.Set("X-Run-ID", report.Run.ID)
	}
	for _, n := range report.Notices {
		h.Add(NoticeHeader, n)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Blob); err != nil {
		s.logger.Warn().Err(err).Str("file", report.Filename).Msg("Failed to write workbook response")
	}
}

// upload reads the optional "file" field as a ticker sheet. grouped
// requires an Index column; required fails when no file was sent.
func (s *Server) upload(r *http.Request, grouped, required bool) (model.Universe, error) {
	if r.Method == http.MethodPost {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return model.Universe{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				return model.Universe{}, fmt.Errorf("%w: file is required", errBadRequest)
			}
			return model.Universe{}, nil
		}
		return model.Universe{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer file.Close()

	if header.Filename == "" {
		if required {
			return model.Universe{}, fmt.Errorf("%w: no file selected", errBadRequest)
		}
		return model.Universe{}, nil
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx", ".xls":
	default:
		return model.Universe{}, fmt.Errorf("%w: invalid file format, upload an Excel file", errBadRequest)
	}
	return tickerfile.Parse(file, grouped)
}

func layoutParam(r *http.Request) (*model.Layout, error) {
	v := r.FormValue("layout")
	if v == "" {
		return nil, nil
	}
	l, err := model.ParseLayout(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return &l, nil
}

func intField(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number", model.ErrInvalidPeriod, name)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number", model.ErrInvalidPeriod, name)
	}
	return n, nil
}

// describe turns validator errors into a short field list.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// runView is the JSON form of an export run.
type runView struct {
	ID          string   `json:"id"`
	Trigger     string   `json:"trigger"`
	Mode        string   `json:"mode"`
	StartedAt   string   `json:"started_at"`
	DurationMs  int64    `json:"duration_ms"`
	Sheets      int      `json:"sheets"`
	Rows        int      `json:"rows"`
	Filename    string   `json:"filename"`
	Destination string   `json:"destination,omitempty"`
	Exported    bool     `json:"exported"`
	Error       string   `json:"error,omitempty"`
	Notices     []string `json:"notices"`
}

func newRunView(run model.ExportRun) runView {
	return runView{
		ID:          run.ID,
		Trigger:     string(run.Trigger),
		Mode:        run.Mode.String(),
		StartedAt:   run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		DurationMs:  run.Duration.Milliseconds(),
		Sheets:      run.Sheets,
		Rows:        run.Rows,
		Filename:    run.Filename,
		Destination: run.Destination,
		Exported:    run.Exported,
		Error:       run.Err,
		Notices:     nonNil(run.Notices),
	}
}

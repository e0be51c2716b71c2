// Package scheduler runs exports on cron schedules and answers chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/model"
	"MarketWorkbook/internal/notifier"
	"MarketWorkbook/internal/pipeline"
	"MarketWorkbook/internal/recorder"
)

// Runner runs export jobs. Implemented by pipeline.Service.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Report, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Ctx      context.Context
	logger   arbor.ILogger
}

// NewScheduler creates a new Scheduler. tn may be nil when notifications
// are disabled.
func NewScheduler(ctx context.Context, runner Runner, tn notifier.Notifier, rec recorder.Recorder, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Notifier: tn,
		Recorder: rec,
		Ctx:      ctx,
		logger:   logger,
	}
}

// RegisterAll registers the daily all-components and hourly realtime exports.
func (s *Scheduler) RegisterAll(dailyCron, hourlyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(hourlyCron, s.hourlyTask); err != nil {
		return fmt.Errorf("register hourly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.export(model.ModeAllComponents, model.TriggerDaily)
}

func (s *Scheduler) hourlyTask() {
	s.export(model.ModeRealtime, model.TriggerHourly)
}

// export runs one LATEST-mode job against the default backend and reports
// the outcome. Failures are logged and notified only.
func (s *Scheduler) export(mode model.Mode, trigger model.Trigger) *pipeline.Report {
	s.logger.Info().Str("mode", mode.String()).Str("trigger", string(trigger)).Msg("Running scheduled export")

	report, err := s.Runner.Run(s.Ctx, pipeline.Job{
		Selector: model.Latest(mode),
		Trigger:  trigger,
		Dispatch: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("mode", mode.String()).Msg("Scheduled export failed")
	}
	if report == nil {
		s.trySend(fmt.Sprintf("❌ %s export failed: %v", mode, err))
		return nil
	}
	s.trySend(notifier.FormatRun(&report.Run))
	return report
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/all":
		return s.runCommand(model.ModeAllComponents)
	case "/realtime":
		return s.runCommand(model.ModeRealtime)
	case "/status":
		run, err := s.Recorder.LastRun(ctx)
		if errors.Is(err, recorder.ErrNoRuns) {
			return notifier.FormatStatus(nil)
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to load last run")
			return fmt.Sprintf("❌ could not load run history: %v", err)
		}
		return notifier.FormatStatus(run)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) runCommand(mode model.Mode) string {
	report, err := s.Runner.Run(s.Ctx, pipeline.Job{
		Selector: model.Latest(mode),
		Trigger:  model.TriggerTelegram,
		Dispatch: true,
	})
	if report == nil {
		return fmt.Sprintf("❌ %s export failed: %v", mode, err)
	}
	return notifier.FormatRun(&report.Run)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("Failed to send notification")
	}
}

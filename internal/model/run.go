package model

import "time"

// Trigger records what started an export run.
type Trigger string

const (
	TriggerManual   Trigger = "MANUAL"
	TriggerDaily    Trigger = "DAILY"
	TriggerHourly   Trigger = "HOURLY"
	TriggerTelegram Trigger = "TELEGRAM"
)

// ExportRun summarizes one export invocation.
type ExportRun struct {
	ID          string
	Trigger     Trigger
	Mode        Mode
	StartedAt   time.Time
	Duration    time.Duration
	Groups      int
	Sheets      int
	Rows        int
	Filename    string
	Destination string
	Exported    bool
	Err         string
	Notices     []string
}

package database

import (
	"time"
)

// Run statuses
const (
	RunStatusRunning = "running"
	RunStatusStopped = "stopped"
	RunStatusFailed  = "failed"
)

// Run is one invocation of the farming loop
type Run struct {
	ID           int64      `db:"id"`
	DeviceSerial string     `db:"device_serial"`
	StartedAt    time.Time  `db:"started_at"`
	StoppedAt    *time.Time `db:"stopped_at"`
	Status       string     `db:"status"`
	Loops        int        `db:"loops"`
	ErrorMessage *string    `db:"error_message"`
}

// RunEvent is a notable loop event recorded against a run
type RunEvent struct {
	ID         int64     `db:"id"`
	RunID      int64     `db:"run_id"`
	EventType  string    `db:"event_type"`
	Source     string    `db:"source"`
	Payload    *string   `db:"payload"`
	OccurredAt time.Time `db:"occurred_at"`
}

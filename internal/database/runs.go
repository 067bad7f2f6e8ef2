package database

import (
	"database/sql"
	"fmt"
	"time"
)

// StartRun inserts a running row and returns its ID
func (db *DB) StartRun(deviceSerial string, startedAt time.Time) (int64, error) {
	var runID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO runs (device_serial, started_at, status)
			VALUES (?, ?, ?)
		`, deviceSerial, startedAt, RunStatusRunning)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		runID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// FinishRun closes a run. A non-empty errorMessage marks it failed.
func (db *DB) FinishRun(runID int64, stoppedAt time.Time, loops int, errorMessage string) error {
	status := RunStatusStopped
	var message *string
	if errorMessage != "" {
		status = RunStatusFailed
		message = &errorMessage
	}

	result, err := db.conn.Exec(`
		UPDATE runs
		SET stopped_at = ?, status = ?, loops = ?, error_message = ?
		WHERE id = ?
	`, stoppedAt, status, loops, message, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}

// RecordEvent appends an event to a run. payload may be empty.
func (db *DB) RecordEvent(runID int64, eventType, source, payload string, occurredAt time.Time) error {
	var p *string
	if payload != "" {
		p = &payload
	}

	_, err := db.conn.Exec(`
		INSERT INTO run_events (run_id, event_type, source, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, eventType, source, p, occurredAt)
	if err != nil {
		return fmt.Errorf("failed to record %s for run %d: %w", eventType, runID, err)
	}
	return nil
}

// GetRun loads one run
func (db *DB) GetRun(runID int64) (*Run, error) {
	run := &Run{}
	err := db.conn.QueryRow(`
		SELECT id, device_serial, started_at, stopped_at, status, loops, error_message
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.DeviceSerial, &run.StartedAt, &run.StoppedAt,
		&run.Status, &run.Loops, &run.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	return run, nil
}

// ListRunEvents returns a run's events in insertion order
func (db *DB) ListRunEvents(runID int64) ([]*RunEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, event_type, source, payload, occurred_at
		FROM run_events WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []*RunEvent
	for rows.Next() {
		e := &RunEvent{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.EventType, &e.Source, &e.Payload, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEvents returns how many events of a type a run recorded
func (db *DB) CountEvents(runID int64, eventType string) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM run_events WHERE run_id = ? AND event_type = ?
	`, runID, eventType).Scan(&n)
	return n, err
}

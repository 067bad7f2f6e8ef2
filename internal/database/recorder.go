package database

import (
	"encoding/json"
	"sync"

	"jordanella.com/battlefarm-go/internal/events"
)

// Recorder writes bus events into the run history. It only writes; nothing
// reads the history back into the loop.
type Recorder struct {
	db       *DB
	eventBus events.EventBus
	subs     []events.SubscriptionID

	mu    sync.Mutex
	runID int64
}

// NewRecorder subscribes the recorder to every event type
func NewRecorder(db *DB, eventBus events.EventBus) *Recorder {
	r := &Recorder{db: db, eventBus: eventBus}
	r.subs = eventBus.SubscribeAll(r.handleEvent)
	return r
}

// RunID returns the active run, 0 before run.started
func (r *Recorder) RunID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

func (r *Recorder) handleEvent(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.EventTypeRunStarted:
		serial, _ := event.Data["serial"].(string)
		runID, err := r.db.StartRun(serial, event.Timestamp)
		if err != nil {
			r.db.logger.Error("Failed to start run record", err)
			return
		}
		r.runID = runID

	case events.EventTypeRunStopped:
		if r.runID == 0 {
			return
		}
		loops, _ := event.Data["loops"].(int)
		message, _ := event.Data["error"].(string)
		if err := r.db.FinishRun(r.runID, event.Timestamp, loops, message); err != nil {
			r.db.logger.Error("Failed to finish run record", err)
		}

	default:
		if r.runID == 0 {
			return
		}
		payload := ""
		if len(event.Data) > 0 {
			if b, err := json.Marshal(event.Data); err == nil {
				payload = string(b)
			}
		}
		if err := r.db.RecordEvent(r.runID, string(event.Type), event.Source, payload, event.Timestamp); err != nil {
			r.db.logger.Error("Failed to record event", err)
		}
	}
}

// Close removes the recorder's subscriptions
func (r *Recorder) Close() {
	for _, id := range r.subs {
		r.eventBus.Unsubscribe(id)
	}
	r.subs = nil
}

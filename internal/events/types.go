package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Run lifecycle
	EventTypeRunStarted EventType = "run.started"
	EventTypeRunStopped EventType = "run.stopped"

	// Control loop
	EventTypeStateChanged  EventType = "state.changed"
	EventTypeBattleEntered EventType = "battle.entered"
	EventTypeBattleExited  EventType = "battle.exited"
	EventTypeBattleChecked EventType = "battle.checked"
	EventTypeResynced      EventType = "state.resynced"
	EventTypePauseToggled  EventType = "pause.toggled"

	// Error events
	EventTypeError EventType = "error"
)

// AllEventTypes lists every event the agent publishes
var AllEventTypes = []EventType{
	EventTypeRunStarted,
	EventTypeRunStopped,
	EventTypeStateChanged,
	EventTypeBattleEntered,
	EventTypeBattleExited,
	EventTypeBattleChecked,
	EventTypeResynced,
	EventTypePauseToggled,
	EventTypeError,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// Publisher is the side of the bus the control loop sees
type Publisher interface {
	Publish(event Event)
}

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Publisher

	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// SubscribeAll registers a handler for every known event type
	SubscribeAll(handler EventHandler) []SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(serial string, inBattle bool) Event {
	return Event{
		Type:      EventTypeRunStarted,
		Source:    "bot",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"serial":    serial,
			"in_battle": inBattle,
		},
	}
}

// NewRunStoppedEvent creates a run stopped event; err may be nil
func NewRunStoppedEvent(loops int, elapsed time.Duration, err error) Event {
	data := map[string]interface{}{
		"loops":      loops,
		"elapsed_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return Event{Type: EventTypeRunStopped, Source: "bot", Timestamp: time.Now(), Data: data}
}

// NewStateChangedEvent creates a state transition event
func NewStateChangedEvent(from, to string, loop int) Event {
	return Event{
		Type:      EventTypeStateChanged,
		Source:    "bot",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"from": from,
			"to":   to,
			"loop": loop,
		},
	}
}

// NewBattleExitedEvent creates an event for a confirmed return to the menu
func NewBattleExitedEvent(attempts, loop int) Event {
	return Event{
		Type:      EventTypeBattleExited,
		Source:    "bot",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"attempts": attempts,
			"loop":     loop,
		},
	}
}

// NewBattleEnteredEvent creates an event for a confirmed battle start
func NewBattleEnteredEvent(attempts, loop int) Event {
	return Event{
		Type:      EventTypeBattleEntered,
		Source:    "bot",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"attempts": attempts,
			"loop":     loop,
		},
	}
}

// NewBattleCheckedEvent reports the periodic close-battle check
func NewBattleCheckedEvent(closeFound, indicatorFound bool, loop int) Event {
	return Event{
		Type:      EventTypeBattleChecked,
		Source:    "bot",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"close_found":     closeFound,
			"indicator_found": indicatorFound,
			"loop":            loop,
		},
	}
}

// NewResyncedEvent reports a forced battle re-check
func NewResyncedEvent(assumed, actual bool, loop int, elapsed time.Duration) Event {
	return Event{
		Type:      EventTypeResynced,
		Source:    "bot",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"assumed_in_battle": assumed,
			"actual_in_battle":  actual,
			"loop":              loop,
			"elapsed_ms":        elapsed.Milliseconds(),
		},
	}
}

// NewPauseToggledEvent reports a pause flip
func NewPauseToggledEvent(paused bool, source string) Event {
	return Event{
		Type:      EventTypePauseToggled,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"paused": paused,
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source string, err error) Event {
	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"error": err.Error(),
		},
	}
}

package logging

import (
	"fmt"

	"jordanella.com/battlefarm-go/internal/events"
)

// EventLogger subscribes to the event bus and logs every event
type EventLogger struct {
	logger          *Logger
	eventBus        events.EventBus
	subscriptionIDs []events.SubscriptionID
}

// NewEventLogger subscribes a logger to all battlefarm event types
func NewEventLogger(eventBus events.EventBus, logger *Logger) *EventLogger {
	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
	}

	el.subscriptionIDs = eventBus.SubscribeAll(el.handleEvent)
	return el
}

// handleEvent handles incoming events and logs them
func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"source": event.Source,
	}
	for k, v := range event.Data {
		context[k] = v
	}

	message := fmt.Sprintf("Event: %s", event.Type)
	switch event.Type {
	case events.EventTypeError:
		el.logger.WarnWithContext(message, context)
	case events.EventTypeBattleChecked:
		el.logger.DebugWithContext(message, context)
	default:
		el.logger.InfoWithContext(message, context)
	}
}

// Close removes the logger's subscriptions
func (el *EventLogger) Close() {
	for _, id := range el.subscriptionIDs {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptionIDs = nil
}

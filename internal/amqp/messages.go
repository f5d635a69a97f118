package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Expense lifecycle actions carried on the event queue.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// ExpenseEvent is the message published for every expense lifecycle change.
// It carries only the id; the worker fetches the full record from storage.
type ExpenseEvent struct {
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCreatedEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{Action: ActionCreated, ID: id, Timestamp: time.Now().UTC()}
}

func NewDeletedEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{Action: ActionDeleted, ID: id, Timestamp: time.Now().UTC()}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Action {
	case ActionCreated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", e.Action)
	}
	return &e, nil
}

package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

// EventType names the mutation an ExpenseEvent reports.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// ExpenseEvent is published after every successful mutation. Expense is the
// stored record for created and updated events and nil for deleted ones.
type ExpenseEvent struct {
	Type      EventType     `json:"type"`
	ID        string        `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseEvent builds an event stamped with the current time.
func NewExpenseEvent(t EventType, e core.Expense) ExpenseEvent {
	ev := ExpenseEvent{Type: t, ID: e.ID, Timestamp: time.Now().UTC()}
	if t != EventDeleted {
		ev.Expense = &e
	}
	return ev
}

// NewDeletedEvent builds the event for a removed id.
func NewDeletedEvent(id string) ExpenseEvent {
	return ExpenseEvent{Type: EventDeleted, ID: id, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (m ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and sanity-checks an event body.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ExpenseEvent{}, err
	}
	if !ev.Type.Valid() {
		return ExpenseEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.ID == "" {
		return ExpenseEvent{}, errors.New("event without id")
	}
	if ev.Type != EventDeleted && ev.Expense == nil {
		return ExpenseEvent{}, fmt.Errorf("%s event %s without expense", ev.Type, ev.ID)
	}
	return ev, nil
}

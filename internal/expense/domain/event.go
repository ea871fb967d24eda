package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseUpdated EventType = "expense.updated"
	ExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent announces a committed change to one expense.
type ExpenseEvent struct {
	Type       EventType `json:"type"`
	ExpenseID  uuid.UUID `json:"expenseId"`
	OwnerID    string    `json:"ownerId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewExpenseEvent(eventType EventType, expenseID uuid.UUID, ownerID string, at time.Time) ExpenseEvent {
	return ExpenseEvent{
		Type:       eventType,
		ExpenseID:  expenseID,
		OwnerID:    ownerID,
		OccurredAt: at.UTC(),
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event ExpenseEvent) error
}

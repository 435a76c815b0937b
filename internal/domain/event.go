package domain

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced         = "order.placed"
	EventDonationRecorded    = "donation.recorded"
	EventExpenditureRecorded = "expenditure.recorded"
)

// Event is a fact written to the outbox in the same transaction that produced it.
type Event struct {
	ID        string
	Type      string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// OutboxRecord is a stored event awaiting delivery.
type OutboxRecord struct {
	Seq int64
	Event
	SentAt *time.Time
}

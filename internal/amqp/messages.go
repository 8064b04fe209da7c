package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"orgfees/internal/core"
)

// Event types carried by TransactionEventMessage.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// TransactionEventMessage is a full snapshot of a transaction after a
// mutation, so consumers never need to read the entity store.
type TransactionEventMessage struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transactionId"`
	Amount        string    `json:"amount"`
	CategoryID    string    `json:"categoryId"`
	StudentID     string    `json:"studentId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	ActorEmail    string    `json:"actorEmail,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(eventType string, t core.Transaction, actor core.Actor) *TransactionEventMessage {
	return &TransactionEventMessage{
		Type:          eventType,
		TransactionID: t.ID.Hex(),
		Amount:        core.FormatAmount(t.Amount),
		CategoryID:    t.CategoryID.Hex(),
		StudentID:     t.StudentID,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		ActorEmail:    actor.Email,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON decodes and sanity-checks a message body.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.TransactionID == "" {
		return nil, fmt.Errorf("event %s without transaction id", msg.Type)
	}
	return &msg, nil
}

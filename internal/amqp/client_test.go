package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"orgfees/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"wrapped ErrClosed", fmt.Errorf("publish: %w", errClosedForTest()), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should be open after max failures")
	}

	client.lastFailure.Store(time.Now().Add(-openTimeout - time.Second).UnixNano())
	if client.isCircuitOpen() {
		t.Error("circuit should move to half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Errorf("state = %d, want half-open", atomic.LoadInt32(&client.state))
	}

	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Error("a failure while half-open should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Error("success should close the circuit and reset failures")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	msg := &TransactionEventMessage{Type: EventTransactionCreated, TransactionID: "abc"}

	t.Run("open circuit refuses", func(t *testing.T) {
		client := &Client{}
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure.Store(time.Now().UnixNano())

		err := client.PublishTransactionEvent(context.Background(), msg)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("error = %v, want ErrCircuitOpen", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := &Client{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishTransactionEvent(ctx, msg); err != context.Canceled {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestNewTransactionEventMessage(t *testing.T) {
	tx := core.Transaction{
		ID:         core.NewID(),
		Amount:     decimal.NewFromInt(100),
		CategoryID: core.NewID(),
		StudentID:  "2301106590",
		Status:     core.StatusCompleted,
		CreatedAt:  time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC),
	}

	msg := NewTransactionEventMessage(EventTransactionCreated, tx, core.Actor{Email: "staff@example.com"})

	if msg.TransactionID != tx.ID.Hex() || msg.CategoryID != tx.CategoryID.Hex() {
		t.Errorf("ids not carried over: %+v", msg)
	}
	if msg.Amount != "100.00" {
		t.Errorf("Amount = %q, want 100.00", msg.Amount)
	}
	if msg.ActorEmail != "staff@example.com" {
		t.Errorf("ActorEmail = %q", msg.ActorEmail)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestTransactionEventMessageFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"type":"transaction.deleted","transactionId":"abc"}`, ""},
		{"malformed", `{"type":`, "unexpected"},
		{"unknown type", `{"type":"expense.sync","transactionId":"abc"}`, "unknown event type"},
		{"missing id", `{"type":"transaction.created"}`, "without transaction id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransactionEventMessageFromJSON([]byte(tt.body))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func errClosedForTest() error {
	return amqp091.ErrClosed
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kasirlokal/backend/internal/domain"
)

const (
	EventTransactionCommitted = "TransactionCommitted"
	EventStockLow             = "StockLow"

	envelopeVersion = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemSold struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Qty       int    `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

type TransactionCommittedPayload struct {
	TransactionID string     `json:"transaction_id"`
	Subtotal      int64      `json:"subtotal"`
	Tax           int64      `json:"tax"`
	Total         int64      `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	Items         []ItemSold `json:"items"`
}

type StockLowPayload struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

func NewEnvelope(eventType string, producer string, correlationID string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

func TransactionCommitted(tx domain.Transaction) TransactionCommittedPayload {
	items := make([]ItemSold, len(tx.Items))
	for i, line := range tx.Items {
		items[i] = ItemSold{ProductID: line.ID, Code: line.Code, Qty: line.Quantity, Subtotal: line.Subtotal}
	}
	return TransactionCommittedPayload{
		TransactionID: tx.ID,
		Subtotal:      tx.Subtotal,
		Tax:           tx.Tax,
		Total:         tx.Total,
		PaymentMethod: tx.PaymentMethod,
		Items:         items,
	}
}

func StockLow(p domain.Product, threshold int) StockLowPayload {
	return StockLowPayload{ProductID: p.ID, Code: p.Code, Name: p.Name, Stock: p.Stock, Threshold: threshold}
}

// UnwrapPayload decodes an envelope payload into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

type Topics struct {
	TransactionCommitted string
	StockLow             string
}

func TopicsFor(prefix string) Topics {
	if prefix == "" {
		prefix = "pos"
	}
	return Topics{
		TransactionCommitted: prefix + ".transaction.committed",
		StockLow:             prefix + ".stock.low",
	}
}

// Publisher delivers envelopes to a topic. key selects the partition so all
// events about one entity stay ordered.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, env Envelope) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ string, _ string, _ Envelope) error {
	return nil
}

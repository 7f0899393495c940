package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

// EventType определяет тип события заказа в Kafka.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderDeleted       EventType = "order.deleted"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "carwash.order.events"
	TopicDeadLetterQueue = "carwash.dlq"
)

// Kafka headers.
const (
	HeaderEventType = "x-event-type"
	HeaderOutboxID  = "x-outbox-id"
)

// eventTypes отображает тип события истории в тип события Kafka.
var eventTypes = map[string]EventType{
	domain.TimelineOrderCreated:       EventTypeOrderCreated,
	domain.TimelineOrderStatusChanged: EventTypeOrderStatusChanged,
	domain.TimelineOrderDeleted:       EventTypeOrderDeleted,
}

// EventTypeOf возвращает тип события Kafka для события outbox.
// Неизвестные типы передаются как есть.
func EventTypeOf(outboxType string) EventType {
	if eventType, ok := eventTypes[outboxType]; ok {
		return eventType
	}
	return EventType(outboxType)
}

// OrderEvent — конверт события заказа, который уходит в topic.
type OrderEvent struct {
	ID            string          `json:"id"`
	EventType     EventType       `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	OrderID       string          `json:"order_id"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewOrderEvent собирает конверт из сообщения outbox.
func NewOrderEvent(msg domain.OutboxMessage, now time.Time) OrderEvent {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 || !json.Valid(payload) {
		payload = json.RawMessage("null")
	}
	return OrderEvent{
		ID:            msg.ID,
		EventType:     EventTypeOf(msg.EventType),
		AggregateType: domain.AggregateCarWashOrder,
		OrderID:       msg.OrderID,
		Payload:       payload,
		PublishedAt:   now.UTC(),
	}
}

package domain

import "time"

// AggregateCarWashOrder — тип агрегата для всех событий outbox.
const AggregateCarWashOrder = "carwash_order"

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository хранит события заказов до публикации в брокер.
//
// События отдаются в порядке записи, поэтому события одного заказа
// публикуются в том порядке, в каком менялся заказ.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	// MarkSent фиксирует доставку и число потраченных попыток.
	MarkSent(id string, attempts int) error
	// MarkDeadLettered снимает событие с публикации после исчерпания попыток.
	MarkDeadLettered(id string, attempts int, reason string) error
}

// TimelineRepository хранит историю статусов заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// OutboxMessage — событие заказа, ожидающее публикации.
type OutboxMessage struct {
	ID        string
	OrderID   string
	EventType string
	Payload   []byte
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// OutboxStats описывает backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
	// DeadLettered — события, которые так и не удалось доставить.
	DeadLettered int
}

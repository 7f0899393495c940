package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

const (
	eventPending      = "pending"
	eventSent         = "sent"
	eventDeadLettered = "dead_lettered"
)

type orderEventRecord struct {
	msg    domain.OutboxMessage
	status string
}

// OrderEventOutbox — in-memory outbox событий заказов. Порядок выдачи
// совпадает с порядком записи, как seq в PostgreSQL-реализации.
type OrderEventOutbox struct {
	mu      sync.RWMutex
	records map[string]*orderEventRecord
	order   []string
	now     func() time.Time
}

// NewOutboxRepository создаёт in-memory outbox.
func NewOutboxRepository() *OrderEventOutbox {
	return &OrderEventOutbox{
		records: make(map[string]*orderEventRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue сохраняет pending-событие заказа.
func (r *OrderEventOutbox) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.OrderID == "" {
		return domain.OutboxMessage{}, domain.ErrOrderIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = r.now()
	msg.Attempts = 0
	msg.LastError = ""

	r.records[msg.ID] = &orderEventRecord{msg: msg, status: eventPending}
	r.order = append(r.order, msg.ID)
	return msg, nil
}

// PullPending возвращает до limit pending-событий в порядке записи.
func (r *OrderEventOutbox) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	result := make([]domain.OutboxMessage, 0, limit)
	for _, id := range r.order {
		rec := r.records[id]
		if rec.status != eventPending {
			continue
		}
		result = append(result, rec.msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Stats считает backlog и недоставленные события.
func (r *OrderEventOutbox) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, id := range r.order {
		rec := r.records[id]
		switch rec.status {
		case eventPending:
			stats.PendingCount++
			if stats.OldestPendingAt.IsZero() || rec.msg.CreatedAt.Before(stats.OldestPendingAt) {
				stats.OldestPendingAt = rec.msg.CreatedAt
			}
		case eventDeadLettered:
			stats.DeadLettered++
		}
	}
	return stats, nil
}

// MarkSent отмечает событие доставленным.
func (r *OrderEventOutbox) MarkSent(id string, attempts int) error {
	return r.finish(id, eventSent, attempts, "")
}

// MarkDeadLettered снимает событие с публикации и запоминает причину.
func (r *OrderEventOutbox) MarkDeadLettered(id string, attempts int, reason string) error {
	return r.finish(id, eventDeadLettered, attempts, reason)
}

// Get возвращает событие вместе с числом попыток и последней ошибкой.
func (r *OrderEventOutbox) Get(id string) (domain.OutboxMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return domain.OutboxMessage{}, false
	}
	return rec.msg, true
}

func (r *OrderEventOutbox) finish(id, status string, attempts int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.status != eventPending {
		return fmt.Errorf("order event %s is not pending: %w", id, domain.ErrOutboxPublish)
	}
	rec.status = status
	rec.msg.Attempts = attempts
	rec.msg.LastError = reason
	return nil
}

var _ domain.OutboxRepository = (*OrderEventOutbox)(nil)

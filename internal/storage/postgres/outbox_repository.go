package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

const (
	eventSent         = "sent"
	eventDeadLettered = "dead_lettered"

	defaultPullLimit = 100
)

const (
	insertOrderEventSQL = `
		INSERT INTO order_event_outbox (id, order_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', $5)`

	selectPendingEventsSQL = `
		SELECT id, order_id, event_type, payload, attempts, last_error, created_at
		FROM order_event_outbox
		WHERE status = 'pending'
		ORDER BY seq
		LIMIT $1`

	outboxStatsSQL = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			MIN(created_at) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'dead_lettered')
		FROM order_event_outbox`

	markEventSentSQL = `
		UPDATE order_event_outbox
		SET status = 'sent', attempts = $2, published_at = $3
		WHERE id = $1 AND status = 'pending'`

	markEventDeadLetteredSQL = `
		UPDATE order_event_outbox
		SET status = 'dead_lettered', attempts = $2, last_error = $3
		WHERE id = $1 AND status = 'pending'`
)

// orderEventOutbox хранит события заказов в таблице order_event_outbox.
// Порядок выдачи задаёт seq: события одного заказа уходят в порядке записи.
type orderEventOutbox struct {
	db  *sql.DB
	now func() time.Time
}

// NewOutboxRepository создаёт PostgreSQL-реализацию OutboxRepository.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &orderEventOutbox{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue записывает событие заказа. Событие без заказа не принимается.
func (r *orderEventOutbox) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.OrderID == "" {
		return domain.OutboxMessage{}, domain.ErrOrderIDRequired
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if len(msg.Payload) == 0 {
		msg.Payload = []byte("{}")
	}
	msg.CreatedAt = r.now()
	msg.Attempts = 0
	msg.LastError = ""

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, insertOrderEventSQL,
		msg.ID, msg.OrderID, msg.EventType, msg.Payload, msg.CreatedAt,
	); err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("enqueue event for order %s: %w", msg.OrderID, err)
	}
	return msg, nil
}

func (r *orderEventOutbox) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultPullLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectPendingEventsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending order events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.OutboxMessage, 0, limit)
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.OrderID, &msg.EventType, &msg.Payload,
			&msg.Attempts, &msg.LastError, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order event: %w", err)
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		events = append(events, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order events: %w", err)
	}
	return events, nil
}

func (r *orderEventOutbox) Stats() (domain.OutboxStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		stats  domain.OutboxStats
		oldest sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, outboxStatsSQL).
		Scan(&stats.PendingCount, &oldest, &stats.DeadLettered); err != nil {
		return domain.OutboxStats{}, fmt.Errorf("order event backlog: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

func (r *orderEventOutbox) MarkSent(id string, attempts int) error {
	return r.finish(eventSent, markEventSentSQL, id, attempts, r.now())
}

func (r *orderEventOutbox) MarkDeadLettered(id string, attempts int, reason string) error {
	return r.finish(eventDeadLettered, markEventDeadLetteredSQL, id, attempts, reason)
}

// finish переводит pending-событие в конечный статус. Повторная отметка
// уже обработанного события считается ошибкой.
func (r *orderEventOutbox) finish(status, query, id string, attempts int, extra any) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id, attempts, extra)
	if err != nil {
		return fmt.Errorf("mark order event %s as %s: %w", id, status, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark order event %s as %s: %w", id, status, err)
	}
	if affected == 0 {
		return fmt.Errorf("order event %s is not pending: %w", id, domain.ErrOutboxPublish)
	}
	return nil
}

var _ domain.OutboxRepository = (*orderEventOutbox)(nil)

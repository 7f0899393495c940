// Package orders реализует бизнес-логику сервиса заказов автомойки:
// CRUD над заказами, история статусов и события для outbox.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/metrics"
)

// Input — поля заказа, которые передаёт клиент при создании и замене.
type Input struct {
	UserName         string
	PhoneNumber      string
	CarLicenseNumber string
	// OrderStatus пустой при создании означает PENDING, при замене — «не менять».
	OrderStatus domain.BackendStatus
}

// Options задаёт зависимости сервиса.
type Options struct {
	Logger   *log.Entry
	Metrics  *metrics.OrderMetrics
	Timeline domain.TimelineRepository
	Outbox   domain.OutboxRepository
	Clock    func() time.Time
	NewID    func() string
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics включает метрики заказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithTimeline включает запись истории статусов.
func WithTimeline(repo domain.TimelineRepository) Option {
	return func(opts *Options) {
		opts.Timeline = repo
	}
}

// WithOutbox включает постановку событий в transactional outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(opts *Options) {
		opts.Outbox = repo
	}
}

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// WithIDGenerator подменяет генератор идентификаторов заказов.
func WithIDGenerator(newID func() string) Option {
	return func(opts *Options) {
		opts.NewID = newID
	}
}

// Service — сервис заказов. Порядок заказов в хранилище и есть очередь.
type Service struct {
	repo     domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
	now      func() time.Time
	newID    func() string
}

// NewService создаёт сервис поверх репозитория заказов.
func NewService(repo domain.OrderRepository, options ...Option) *Service {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "order-service")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Service{
		repo:     repo,
		timeline: opts.Timeline,
		outbox:   opts.Outbox,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      clock,
		newID:    newID,
	}
}

// Create создаёт заказ с новым UUID.
func (s *Service) Create(ctx context.Context, in Input) (domain.BackendOrder, error) {
	if err := ctx.Err(); err != nil {
		return domain.BackendOrder{}, err
	}

	status := in.OrderStatus
	if status == "" {
		status = domain.BackendStatusPending
	}

	now := s.now().UTC()
	order := domain.BackendOrder{
		OrderID:          s.newID(),
		UserName:         strings.TrimSpace(in.UserName),
		PhoneNumber:      strings.TrimSpace(in.PhoneNumber),
		CarLicenseNumber: strings.TrimSpace(in.CarLicenseNumber),
		OrderStatus:      status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.BackendOrder{}, errors.Join(errs...)
	}

	if err := s.repo.Create(order); err != nil {
		return domain.BackendOrder{}, fmt.Errorf("create order: %w", err)
	}

	s.metrics.RecordCreated()
	s.recordEvent(order, domain.TimelineOrderCreated, "", order.OrderStatus)
	s.refreshQueueMetrics()

	s.logger.WithFields(log.Fields{
		"order_id": order.OrderID,
		"status":   order.OrderStatus,
	}).Info("order created")
	return order, nil
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.BackendOrder, error) {
	if err := ctx.Err(); err != nil {
		return domain.BackendOrder{}, err
	}
	order, err := s.repo.Get(id)
	if err != nil {
		return domain.BackendOrder{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// List возвращает все заказы в порядке создания.
func (s *Service) List(ctx context.Context) ([]domain.BackendOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	orders, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListByStatus возвращает заказы с указанным статусом.
func (s *Service) ListByStatus(ctx context.Context, status domain.BackendStatus) ([]domain.BackendOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	orders, err := s.repo.ListByStatus(status)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	return orders, nil
}

// Update заменяет поля заказа. Пустой статус оставляет текущий.
func (s *Service) Update(ctx context.Context, id string, in Input) (domain.BackendOrder, error) {
	return s.mutate(ctx, id, func(order *domain.BackendOrder) {
		order.UserName = strings.TrimSpace(in.UserName)
		order.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
		order.CarLicenseNumber = strings.TrimSpace(in.CarLicenseNumber)
		if in.OrderStatus != "" {
			order.OrderStatus = in.OrderStatus
		}
	})
}

// UpdateStatus меняет только статус заказа. Сервис не ограничивает
// переходы: очередью управляет клиентская сторона.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.BackendStatus) (domain.BackendOrder, error) {
	if !status.Valid() {
		return domain.BackendOrder{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	return s.mutate(ctx, id, func(order *domain.BackendOrder) {
		order.OrderStatus = status
	})
}

func (s *Service) mutate(ctx context.Context, id string, apply func(*domain.BackendOrder)) (domain.BackendOrder, error) {
	if err := ctx.Err(); err != nil {
		return domain.BackendOrder{}, err
	}

	current, err := s.repo.Get(id)
	if err != nil {
		return domain.BackendOrder{}, fmt.Errorf("get order %s: %w", id, err)
	}

	updated := current
	apply(&updated)
	if errs := updated.ValidateInvariants(); len(errs) > 0 {
		return domain.BackendOrder{}, errors.Join(errs...)
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(updated); err != nil {
		return domain.BackendOrder{}, fmt.Errorf("save order %s: %w", id, err)
	}
	updated.Version = current.Version + 1

	if updated.OrderStatus != current.OrderStatus {
		s.metrics.RecordStatusChange(string(updated.OrderStatus))
		s.recordEvent(updated, domain.TimelineOrderStatusChanged, current.OrderStatus, updated.OrderStatus)
		s.refreshQueueMetrics()

		s.logger.WithFields(log.Fields{
			"order_id": id,
			"from":     current.OrderStatus,
			"to":       updated.OrderStatus,
		}).Info("order status changed")
	}
	return updated, nil
}

// Delete удаляет заказ.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	order, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("get order %s: %w", id, err)
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}

	s.metrics.RecordDeleted()
	s.recordEvent(order, domain.TimelineOrderDeleted, order.OrderStatus, "")
	s.refreshQueueMetrics()

	s.logger.WithField("order_id", id).Info("order deleted")
	return nil
}

// Timeline возвращает историю заказа. История удалённого заказа
// сохраняется; для неизвестного id возвращается ErrOrderNotFound.
func (s *Service) Timeline(ctx context.Context, id string) ([]domain.TimelineEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		if _, err := s.repo.Get(id); err != nil {
			return nil, fmt.Errorf("get order %s: %w", id, err)
		}
		return []domain.TimelineEvent{}, nil
	}

	events, err := s.timeline.List(id)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	if len(events) == 0 {
		if _, err := s.repo.Get(id); err != nil {
			return nil, fmt.Errorf("get order %s: %w", id, err)
		}
	}
	return events, nil
}

// orderEventPayload — тело события заказа в outbox.
type orderEventPayload struct {
	OrderID          string               `json:"order_id"`
	UserName         string               `json:"user_name,omitempty"`
	CarLicenseNumber string               `json:"car_license_number,omitempty"`
	FromStatus       domain.BackendStatus `json:"from_status,omitempty"`
	ToStatus         domain.BackendStatus `json:"to_status,omitempty"`
	OccurredAt       time.Time            `json:"occurred_at"`
}

// recordEvent пишет событие в историю и outbox. Ошибки логируются:
// заказ уже сохранён, и отказ вспомогательных хранилищ его не откатывает.
func (s *Service) recordEvent(order domain.BackendOrder, eventType string, from, to domain.BackendStatus) {
	occurred := order.UpdatedAt
	if occurred.IsZero() || eventType == domain.TimelineOrderDeleted {
		occurred = s.now().UTC()
	}
	fields := log.Fields{
		"order_id": order.OrderID,
		"event":    eventType,
	}

	if s.timeline != nil {
		err := s.timeline.Append(domain.TimelineEvent{
			OrderID:    order.OrderID,
			Type:       eventType,
			FromStatus: from,
			ToStatus:   to,
			Occurred:   occurred,
		})
		if err != nil {
			s.logger.WithError(err).WithFields(fields).Error("append timeline event failed")
		} else {
			s.metrics.RecordTimelineEvent()
		}
	}

	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(orderEventPayload{
		OrderID:          order.OrderID,
		UserName:         order.UserName,
		CarLicenseNumber: order.CarLicenseNumber,
		FromStatus:       from,
		ToStatus:         to,
		OccurredAt:       occurred,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		OrderID:   order.OrderID,
		EventType: eventType,
		Payload:   payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(fields).Error("enqueue event failed")
		return
	}
	s.metrics.RecordOutboxEvent()
}

func (s *Service) refreshQueueMetrics() {
	if s.metrics == nil {
		return
	}
	orders, err := s.repo.List()
	if err != nil {
		s.logger.WithError(err).Warn("failed to refresh queue metrics")
		return
	}
	byStatus := make(map[string]int)
	for _, order := range orders {
		byStatus[string(order.OrderStatus)]++
	}
	s.metrics.SetQueueOrders(byStatus)
}

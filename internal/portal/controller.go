// Package portal владеет очередью заказов клиентского портала и
// направляет изменения в активное хранилище.
package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/metrics"
)

// ConfirmationTTL — сколько подтверждение о принятом заказе остаётся на экране.
const ConfirmationTTL = 5 * time.Second

// Submission — результат отправки формы.
type Submission struct {
	Order domain.Order
	// Position — число машин впереди, т.е. длина очереди до добавления.
	Position int
	At       time.Time
}

// ClearFailure — заказ, который не удалось удалить при очистке.
type ClearFailure struct {
	ID  int
	Err error
}

// ClearReport — поэлементный итог очистки очереди.
type ClearReport struct {
	Deleted []int
	Failed  []ClearFailure
}

// Partial сообщает, что часть заказов осталась в очереди.
func (r ClearReport) Partial() bool {
	return len(r.Failed) > 0
}

// Options задаёт параметры контроллера.
type Options struct {
	Logger  *log.Entry
	Metrics *metrics.PortalMetrics
	Clock   func() time.Time
}

// Option настраивает Controller.
type Option func(*Options)

// WithLogger задаёт logger контроллера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics включает метрики портала.
func WithMetrics(m *metrics.PortalMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// Controller хранит коллекцию заказов в памяти. Все изменения сериализованы
// мьютексом; вызов хранилища выполняется до изменения памяти, и при ошибке
// коллекция остаётся прежней.
type Controller struct {
	mode    Mode
	local   LocalStore
	remote  RemoteClient
	logger  *log.Entry
	metrics *metrics.PortalMetrics
	now     func() time.Time

	mu           sync.Mutex
	orders       []domain.Order
	confirmation *Submission
}

// NewLocal создаёт контроллер поверх локального хранилища.
func NewLocal(store LocalStore, options ...Option) *Controller {
	c := newController(ModeLocal, options)
	c.local = store
	return c
}

// NewRemote создаёт контроллер поверх сервиса заказов.
func NewRemote(client RemoteClient, options ...Option) *Controller {
	c := newController(ModeRemote, options)
	c.remote = client
	return c
}

func newController(mode Mode, options []Option) *Controller {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "portal-controller")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Controller{
		mode:    mode,
		logger:  logger.WithField("mode", string(mode)),
		metrics: opts.Metrics,
		now:     clock,
		orders:  []domain.Order{},
	}
}

// Mode возвращает активный режим хранения.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Load заполняет коллекцию из хранилища. Недоступный сервис или ошибка
// загрузки дают пустую очередь, а не ошибку.
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeLocal:
		c.orders = c.local.Load()
	case ModeRemote:
		c.orders = c.loadRemote(ctx)
	}
	c.metrics.SetQueueLength(len(c.orders))
	c.logger.WithField("orders", len(c.orders)).Info("order queue loaded")
}

func (c *Controller) loadRemote(ctx context.Context) []domain.Order {
	if !c.remote.CheckAvailability(ctx) {
		c.logger.Warn("order service unavailable, starting with an empty queue")
		return []domain.Order{}
	}
	orders, err := c.remote.GetAll(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("failed to load orders, starting with an empty queue")
		return []domain.Order{}
	}
	return orders
}

// SubmitOrder проверяет форму, создаёт заказ и ставит его в конец очереди.
func (c *Controller) SubmitOrder(ctx context.Context, form domain.OrderForm) (Submission, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return Submission{}, errors.Join(errs...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	submission, err := c.submitLocked(ctx, form)
	c.metrics.RecordSubmission(string(c.mode), err)
	if err != nil {
		c.logger.WithError(err).Warn("order submission failed")
		return Submission{}, err
	}

	c.confirmation = &submission
	c.metrics.SetQueueLength(len(c.orders))
	c.logger.WithFields(log.Fields{
		"ticket":   submission.Order.ID,
		"position": submission.Position,
	}).Info("order submitted")
	return submission, nil
}

func (c *Controller) submitLocked(ctx context.Context, form domain.OrderForm) (Submission, error) {
	now := c.now()
	position := len(c.orders)

	var order domain.Order
	switch c.mode {
	case ModeRemote:
		created, err := c.remote.Create(ctx, form)
		if err != nil {
			return Submission{}, fmt.Errorf("create order: %w", err)
		}
		order = created
	default:
		order = domain.NewOrder(len(c.orders)+1, form, now)
		next := append(c.snapshotLocked(), order)
		if err := c.local.Save(next); err != nil {
			return Submission{}, fmt.Errorf("save orders: %w", err)
		}
	}

	c.orders = append(c.orders, order)
	return Submission{Order: order, Position: position, At: now}, nil
}

// Confirmation возвращает последнюю отправку, пока не истекли ConfirmationTTL.
func (c *Controller) Confirmation() (Submission, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.confirmation == nil {
		return Submission{}, false
	}
	if c.now().Sub(c.confirmation.At) >= ConfirmationTTL {
		c.confirmation = nil
		return Submission{}, false
	}
	return *c.confirmation, true
}

// CompleteOrder отмечает pending-заказ выполненным.
func (c *Controller) CompleteOrder(ctx context.Context, id int, confirmed bool) error {
	err := c.transition(ctx, id, domain.OrderStatusCompleted, confirmed)
	c.metrics.RecordAction("complete", err)
	return err
}

// CancelOrder отменяет pending-заказ.
func (c *Controller) CancelOrder(ctx context.Context, id int, confirmed bool) error {
	err := c.transition(ctx, id, domain.OrderStatusCancelled, confirmed)
	c.metrics.RecordAction("cancel", err)
	return err
}

func (c *Controller) transition(ctx context.Context, id int, to domain.OrderStatus, confirmed bool) error {
	if !confirmed {
		return domain.ErrConfirmationRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}

	updated := c.orders[idx]
	if err := updated.Transition(to); err != nil {
		return err
	}

	switch c.mode {
	case ModeRemote:
		remote, err := c.remote.UpdateStatus(ctx, id, to)
		if err != nil {
			return fmt.Errorf("update order %d: %w", id, err)
		}
		if updated.RemoteID == "" {
			updated.RemoteID = remote.RemoteID
		}
	default:
		next := c.snapshotLocked()
		next[idx] = updated
		if err := c.local.Save(next); err != nil {
			return fmt.Errorf("save orders: %w", err)
		}
	}

	c.orders[idx] = updated
	c.logger.WithFields(log.Fields{
		"ticket": id,
		"status": string(to),
	}).Info("order status changed")
	return nil
}

// ClearAll очищает очередь. В удалённом режиме заказы удаляются по одному;
// удалённые убираются из памяти, неудачные остаются и попадают в отчёт.
func (c *Controller) ClearAll(ctx context.Context, confirmed bool) (ClearReport, error) {
	if !confirmed {
		return ClearReport{}, domain.ErrConfirmationRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	report, err := c.clearLocked(ctx)
	c.metrics.RecordAction("clear", err)
	c.metrics.SetQueueLength(len(c.orders))
	if err != nil {
		c.logger.WithError(err).WithField("failed", len(report.Failed)).Warn("queue cleared partially")
	} else {
		c.logger.WithField("deleted", len(report.Deleted)).Info("queue cleared")
	}
	return report, err
}

func (c *Controller) clearLocked(ctx context.Context) (ClearReport, error) {
	var report ClearReport

	if c.mode == ModeLocal {
		if err := c.local.Clear(); err != nil {
			return report, fmt.Errorf("clear orders: %w", err)
		}
		for _, order := range c.orders {
			report.Deleted = append(report.Deleted, order.ID)
		}
		c.orders = []domain.Order{}
		return report, nil
	}

	remaining := make([]domain.Order, 0)
	var errs []error
	for _, order := range c.orders {
		if err := c.remote.Delete(ctx, order.ID); err != nil {
			report.Failed = append(report.Failed, ClearFailure{ID: order.ID, Err: err})
			errs = append(errs, fmt.Errorf("delete order %d: %w", order.ID, err))
			remaining = append(remaining, order)
			continue
		}
		report.Deleted = append(report.Deleted, order.ID)
	}
	c.orders = remaining
	return report, errors.Join(errs...)
}

// Orders возвращает копию очереди в порядке добавления.
func (c *Controller) Orders() []domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() []domain.Order {
	out := make([]domain.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

func (c *Controller) indexLocked(id int) int {
	for i := range c.orders {
		if c.orders[i].ID == id {
			return i
		}
	}
	return -1
}

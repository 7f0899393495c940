// Package orderapi — HTTP-клиент сервиса заказов для клиентского портала.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/metrics"
	"github.com/vladislavdragonenkov/carwash/internal/version"
)

const (
	defaultTimeout = 5 * time.Second
	// Ответы сервиса небольшие; лимит защищает от мусора в теле.
	maxResponseBytes = 1 << 20
)

// Options задаёт параметры клиента.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *log.Entry
	Metrics    *metrics.ClientMetrics
	Clock      func() time.Time
}

// Option настраивает Client.
type Option func(*Options)

// WithHTTPClient подменяет http.Client (например, httptest-сервер в тестах).
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithTimeout задаёт таймаут одного запроса.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics включает метрики вызовов.
func WithMetrics(m *metrics.ClientMetrics) Option {
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

// Client вызывает REST API сервиса заказов и переводит ответы в клиентские заказы.
//
// Клиент помнит, какой номер талона выдан каждому заказу сервиса: номера
// стабильны между вызовами, а коллизии разных заказов разрешаются инкрементом.
// Если сервис не вернул orderId в ответе на создание, заказ остаётся без
// RemoteID и при следующем изменении ищется по содержимому.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
	metrics *metrics.ClientMetrics
	now     func() time.Time

	mu       sync.Mutex
	byTicket map[int]domain.Order
	byRemote map[string]int
}

// New создаёт клиента для baseURL вида http://host:8080/api.
func New(baseURL string, options ...Option) *Client {
	opts := Options{Timeout: defaultTimeout}
	for _, option := range options {
		option(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Timeout > 0 {
		clone := *httpClient
		clone.Timeout = opts.Timeout
		httpClient = &clone
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "orderapi-client")
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      clock,
		byTicket: make(map[int]domain.Order),
		byRemote: make(map[string]int),
	}
}

// CheckAvailability проверяет, что сервис отвечает. Любая ошибка означает false.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	err := c.do(ctx, "check_availability", http.MethodGet, "/orders/api_status", nil, nil)
	c.metrics.SetBackendAvailable(err == nil)
	if err != nil {
		c.logger.WithError(err).Warn("order service is not available")
		return false
	}
	return true
}

// GetAll загружает все заказы сервиса в порядке, который вернул сервис.
func (c *Client) GetAll(ctx context.Context) ([]domain.Order, error) {
	backend, err := c.fetchAll(ctx, "get_all")
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Список сервиса полный, талоны без RemoteID из прошлых ответов устарели.
	for ticket, cached := range c.byTicket {
		if cached.RemoteID == "" {
			delete(c.byTicket, ticket)
		}
	}

	now := c.now()
	orders := make([]domain.Order, 0, len(backend))
	for _, b := range backend {
		order := toOrder(b, c.assignTicketLocked(b.OrderID, now), now)
		c.byTicket[order.ID] = order
		orders = append(orders, order)
	}
	return orders, nil
}

// Create создаёт заказ в сервисе со статусом PENDING.
func (c *Client) Create(ctx context.Context, form domain.OrderForm) (domain.Order, error) {
	var created domain.BackendOrder
	if err := c.do(ctx, "create", http.MethodPost, "/orders", toCreateRequest(form), &created); err != nil {
		return domain.Order{}, err
	}
	if created.OrderID == "" {
		c.logger.Warn("order service returned no orderId, order will be matched by content")
	}
	return c.remember(created), nil
}

// UpdateStatus меняет статус заказа с номером талона id.
func (c *Client) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) (domain.Order, error) {
	remoteID, err := c.resolve(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	var updated domain.BackendOrder
	body := statusRequest{Status: domain.BackendStatusOf(status)}
	if err := c.do(ctx, "update_status", http.MethodPatch, "/orders/"+url.PathEscape(remoteID)+"/status", body, &updated); err != nil {
		return domain.Order{}, err
	}
	return c.remember(updated), nil
}

// Delete удаляет заказ с номером талона id.
func (c *Client) Delete(ctx context.Context, id int) error {
	remoteID, err := c.resolve(ctx, id)
	if err != nil {
		return err
	}

	if err := c.do(ctx, "delete", http.MethodDelete, "/orders/"+url.PathEscape(remoteID), nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.byTicket, id)
	delete(c.byRemote, remoteID)
	c.mu.Unlock()
	return nil
}

func (c *Client) remember(b domain.BackendOrder) domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	order := toOrder(b, c.assignTicketLocked(b.OrderID, now), now)
	// Время создания из кэша важнее, если сервис его не прислал.
	if prev, ok := c.byTicket[order.ID]; ok && b.CreatedAt.IsZero() && !prev.Timestamp.IsZero() {
		order.Timestamp = prev.Timestamp
	}
	c.byTicket[order.ID] = order
	return order
}

// assignTicketLocked возвращает стабильный номер талона для remoteID.
// Заказу без remoteID выдаётся новый свободный талон.
func (c *Client) assignTicketLocked(remoteID string, now time.Time) int {
	if remoteID == "" {
		ticket := DeriveTicketID("", now)
		for {
			if _, taken := c.byTicket[ticket]; !taken {
				return ticket
			}
			ticket++
		}
	}

	if ticket, ok := c.byRemote[remoteID]; ok {
		return ticket
	}

	ticket := DeriveTicketID(remoteID, now)
	for {
		existing, taken := c.byTicket[ticket]
		if !taken || existing.RemoteID == remoteID {
			break
		}
		ticket++
	}
	c.byRemote[remoteID] = ticket
	return ticket
}

// resolve находит идентификатор сервиса для номера талона. Если RemoteID
// неизвестен, заказ ищется по содержимому: побеждает первый заказ сервиса,
// ещё не связанный с другим талоном. Одинаковые заказы при этом неразличимы.
func (c *Client) resolve(ctx context.Context, id int) (string, error) {
	c.mu.Lock()
	order, ok := c.byTicket[id]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	if order.RemoteID != "" {
		return order.RemoteID, nil
	}

	backend, err := c.fetchAll(ctx, "reconcile")
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range backend {
		candidate := backend[i]
		if candidate.OrderID == "" || !candidate.SameCustomer(order) {
			continue
		}
		if owner, bound := c.byRemote[candidate.OrderID]; bound && owner != id {
			continue
		}

		c.logger.WithFields(log.Fields{
			"ticket":   id,
			"order_id": candidate.OrderID,
		}).Debug("order reconciled by content")

		// Связка запоминается, чтобы талон не поменялся после ответа сервиса.
		order.RemoteID = candidate.OrderID
		c.byTicket[id] = order
		c.byRemote[order.RemoteID] = id
		return order.RemoteID, nil
	}
	return "", fmt.Errorf("order %d: %w", id, domain.ErrBackendOrderNotFound)
}

func (c *Client) fetchAll(ctx context.Context, op string) ([]domain.BackendOrder, error) {
	var backend []domain.BackendOrder
	if err := c.do(ctx, op, http.MethodGet, "/orders", nil, &backend); err != nil {
		return nil, err
	}
	return backend, nil
}

// do выполняет запрос, проверяет код ответа и декодирует JSON в out (если out != nil).
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveRequest(op, err, time.Since(started))
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("portal"))
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &StatusError{Op: op, Code: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Помимо map хранит порядок вставки: очередь на мойку — это порядок создания.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.BackendOrder
	order []string
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.BackendOrder),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.BackendOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.OrderID]; exists {
		return domain.ErrOrderVersionConflict
	}
	r.items[order.OrderID] = order
	r.order = append(r.order, order.OrderID)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.BackendOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.BackendOrder{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// List возвращает все заказы в порядке создания.
func (r *orderRepositoryInMemory) List() ([]domain.BackendOrder, error) {
	return r.filter(func(domain.BackendOrder) bool { return true }), nil
}

// ListByStatus возвращает заказы с нужным статусом в порядке создания.
func (r *orderRepositoryInMemory) ListByStatus(status domain.BackendStatus) ([]domain.BackendOrder, error) {
	return r.filter(func(o domain.BackendOrder) bool { return o.OrderStatus == status }), nil
}

func (r *orderRepositoryInMemory) filter(keep func(domain.BackendOrder) bool) []domain.BackendOrder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.BackendOrder, 0, len(r.order))
	for _, id := range r.order {
		order := r.items[id]
		if keep(order) {
			result = append(result, order)
		}
	}
	return result
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(order domain.BackendOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.OrderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// CreatedAt не меняется после создания.
	order.CreatedAt = current.CreatedAt
	order.Version++
	r.items[order.OrderID] = order
	return nil
}

// Delete удаляет заказ и его позицию в очереди.
func (r *orderRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)

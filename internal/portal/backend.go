package portal

import (
	"context"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

// Mode — активный способ хранения заказов.
type Mode string

const (
	// ModeLocal — коллекция целиком хранится локальным адаптером.
	ModeLocal Mode = "local"
	// ModeRemote — заказы живут в сервисе заказов.
	ModeRemote Mode = "remote"
)

// ParseMode разбирает режим из конфигурации.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeLocal:
		return ModeLocal, true
	case ModeRemote:
		return ModeRemote, true
	default:
		return "", false
	}
}

// LocalStore — локальный адаптер хранения (см. storage/local).
type LocalStore interface {
	Load() []domain.Order
	Save(orders []domain.Order) error
	Clear() error
}

// RemoteClient — клиент сервиса заказов (см. orderapi).
type RemoteClient interface {
	CheckAvailability(ctx context.Context) bool
	GetAll(ctx context.Context) ([]domain.Order, error)
	Create(ctx context.Context, form domain.OrderForm) (domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) (domain.Order, error)
	Delete(ctx context.Context, id int) error
}

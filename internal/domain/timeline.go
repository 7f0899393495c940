package domain

import "time"

// Типы событий истории заказа.
const (
	TimelineOrderCreated       = "OrderCreated"
	TimelineOrderStatusChanged = "OrderStatusChanged"
	TimelineOrderDeleted       = "OrderDeleted"
)

// TimelineEvent описывает смену состояния заказа в сервисе.
type TimelineEvent struct {
	OrderID    string        `json:"orderId"`
	Type       string        `json:"type"`
	FromStatus BackendStatus `json:"fromStatus,omitempty"`
	ToStatus   BackendStatus `json:"toStatus,omitempty"`
	Occurred   time.Time     `json:"occurred"`
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// BackendStatus — статус заказа в сервисе заказов.
type BackendStatus string

const (
	BackendStatusPending    BackendStatus = "PENDING"
	BackendStatusInProgress BackendStatus = "IN_PROGRESS"
	BackendStatusCompleted  BackendStatus = "COMPLETED"
	BackendStatusCancelled  BackendStatus = "CANCELLED"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s BackendStatus) Valid() bool {
	switch s {
	case BackendStatusPending, BackendStatusInProgress, BackendStatusCompleted, BackendStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseBackendStatus разбирает статус из пути или тела запроса.
func ParseBackendStatus(raw string) (BackendStatus, error) {
	status := BackendStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// ClientStatus отображает статус сервиса в клиентский.
// IN_PROGRESS остаётся в очереди, поэтому считается pending.
func (s BackendStatus) ClientStatus() OrderStatus {
	switch s {
	case BackendStatusCompleted:
		return OrderStatusCompleted
	case BackendStatusCancelled:
		return OrderStatusCancelled
	default:
		return OrderStatusPending
	}
}

// BackendStatusOf отображает клиентский статус в статус сервиса.
func BackendStatusOf(s OrderStatus) BackendStatus {
	switch s {
	case OrderStatusCompleted:
		return BackendStatusCompleted
	case OrderStatusCancelled:
		return BackendStatusCancelled
	default:
		return BackendStatusPending
	}
}

// BackendOrder — заказ в сервисе заказов (формат REST API).
type BackendOrder struct {
	OrderID          string        `json:"orderId"`
	UserName         string        `json:"userName"`
	PhoneNumber      string        `json:"phoneNumber"`
	CarLicenseNumber string        `json:"carLicenseNumber"`
	OrderStatus      BackendStatus `json:"orderStatus"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	// Version используется для optimistic locking в хранилище и наружу не отдаётся.
	Version int64 `json:"-"`
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *BackendOrder) ValidateInvariants() []error {
	var errs []error

	if o.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if strings.TrimSpace(o.UserName) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if strings.TrimSpace(o.PhoneNumber) == "" {
		errs = append(errs, ErrPhoneNumberRequired)
	}
	if strings.TrimSpace(o.CarLicenseNumber) == "" {
		errs = append(errs, ErrLicenseNumberRequired)
	}
	if !o.OrderStatus.Valid() {
		errs = append(errs, ErrInvalidStatus)
	}

	return errs
}

// SameCustomer сравнивает заказы по содержимому: имя, телефон и номер машины.
// Другого способа связать клиентский заказ без RemoteID с записью сервиса нет.
func (o *BackendOrder) SameCustomer(order Order) bool {
	return o.CarLicenseNumber == order.LicenseNumber &&
		o.UserName == order.Name &&
		o.PhoneNumber == order.PhoneNumber
}

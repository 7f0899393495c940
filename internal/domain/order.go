package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus описывает состояние заказа на мойку в очереди клиента.
type OrderStatus string

const (
	// OrderStatusPending — машина ждёт своей очереди (или уже моется).
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusCompleted — мойка завершена. Терминальное состояние.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён. Терминальное состояние.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order — заказ на мойку в том виде, в котором его видит клиентская часть.
type Order struct {
	// ID — номер талона. Локально это длина коллекции + 1,
	// в удалённом режиме — число, выведенное из идентификатора сервиса.
	ID            int         `json:"id"`
	LicenseNumber string      `json:"licenseNumber"`
	Name          string      `json:"name"`
	PhoneNumber   string      `json:"phoneNumber"`
	Timestamp     time.Time   `json:"timestamp"`
	Status        OrderStatus `json:"status"`
	// RemoteID — непрозрачный идентификатор заказа на стороне сервиса.
	// Пустой в локальном режиме.
	RemoteID string `json:"remoteId,omitempty"`
}

// Transition переводит заказ в терминальный статус.
// Разрешены только pending → completed и pending → cancelled.
func (o *Order) Transition(to OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if o.Status != OrderStatusPending || !to.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	return nil
}

// OrderForm — данные, которые клиент вводит в форму.
type OrderForm struct {
	LicenseNumber string
	Name          string
	PhoneNumber   string
}

// Normalize убирает пробелы по краям всех полей.
func (f OrderForm) Normalize() OrderForm {
	return OrderForm{
		LicenseNumber: strings.TrimSpace(f.LicenseNumber),
		Name:          strings.TrimSpace(f.Name),
		PhoneNumber:   strings.TrimSpace(f.PhoneNumber),
	}
}

// Validate проверяет, что все три поля заполнены, и возвращает список замечаний.
func (f OrderForm) Validate() []error {
	var errs []error

	if strings.TrimSpace(f.LicenseNumber) == "" {
		errs = append(errs, ErrLicenseNumberRequired)
	}
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if strings.TrimSpace(f.PhoneNumber) == "" {
		errs = append(errs, ErrPhoneNumberRequired)
	}

	return errs
}

// NewOrder собирает pending-заказ из формы.
func NewOrder(id int, form OrderForm, now time.Time) Order {
	form = form.Normalize()
	return Order{
		ID:            id,
		LicenseNumber: form.LicenseNumber,
		Name:          form.Name,
		PhoneNumber:   form.PhoneNumber,
		Timestamp:     now,
		Status:        OrderStatusPending,
	}
}

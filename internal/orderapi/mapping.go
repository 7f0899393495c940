package orderapi

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

const ticketDigits = 6

// DeriveTicketID выводит номер талона из непрозрачного идентификатора сервиса:
// берутся последние шесть цифр. Если цифр нет или они дают ноль,
// используется текущее время в миллисекундах.
func DeriveTicketID(orderID string, now time.Time) int {
	var digits strings.Builder
	for _, r := range orderID {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			digits.WriteRune(r)
		}
	}

	raw := digits.String()
	if len(raw) > ticketDigits {
		raw = raw[len(raw)-ticketDigits:]
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id == 0 {
		return int(now.UnixMilli())
	}
	return id
}

// toOrder переводит заказ сервиса в клиентский вид с уже выбранным номером талона.
func toOrder(b domain.BackendOrder, ticket int, now time.Time) domain.Order {
	ts := b.CreatedAt
	if ts.IsZero() {
		ts = now
	}
	return domain.Order{
		ID:            ticket,
		LicenseNumber: b.CarLicenseNumber,
		Name:          b.UserName,
		PhoneNumber:   b.PhoneNumber,
		Timestamp:     ts,
		Status:        b.OrderStatus.ClientStatus(),
		RemoteID:      b.OrderID,
	}
}

// createRequest — тело POST /orders.
type createRequest struct {
	UserName         string               `json:"userName"`
	PhoneNumber      string               `json:"phoneNumber"`
	CarLicenseNumber string               `json:"carLicenseNumber"`
	OrderStatus      domain.BackendStatus `json:"orderStatus"`
}

func toCreateRequest(form domain.OrderForm) createRequest {
	form = form.Normalize()
	return createRequest{
		UserName:         form.Name,
		PhoneNumber:      form.PhoneNumber,
		CarLicenseNumber: form.LicenseNumber,
		OrderStatus:      domain.BackendStatusPending,
	}
}

// statusRequest — тело PATCH /orders/{orderId}/status.
type statusRequest struct {
	Status domain.BackendStatus `json:"status"`
}

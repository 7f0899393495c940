package orderapi

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

func TestDeriveTicketID(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)

	tests := []struct {
		name    string
		orderID string
		want    int
	}{
		{name: "last six digits", orderID: "a1b2-c3d4-5678-9012", want: 789012},
		{name: "short digit run", orderID: "order-42", want: 42},
		{name: "leading zeros", orderID: "xx-000123", want: 123},
		{name: "no digits", orderID: "abc-def", want: int(now.UnixMilli())},
		{name: "only zeros", orderID: "000-000", want: int(now.UnixMilli())},
		{name: "empty", orderID: "", want: int(now.UnixMilli())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTicketID(tt.orderID, now); got != tt.want {
				t.Errorf("DeriveTicketID(%q) = %d, want %d", tt.orderID, got, tt.want)
			}
		})
	}
}

func TestToCreateRequest(t *testing.T) {
	req := toCreateRequest(domain.OrderForm{LicenseNumber: " X1 ", Name: " Ivan", PhoneNumber: "555 "})

	if req.CarLicenseNumber != "X1" || req.UserName != "Ivan" || req.PhoneNumber != "555" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.OrderStatus != domain.BackendStatusPending {
		t.Fatalf("expected PENDING, got %s", req.OrderStatus)
	}
}

func TestToOrderStatusMapping(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := map[domain.BackendStatus]domain.OrderStatus{
		domain.BackendStatusPending:    domain.OrderStatusPending,
		domain.BackendStatusInProgress: domain.OrderStatusPending,
		domain.BackendStatusCompleted:  domain.OrderStatusCompleted,
		domain.BackendStatusCancelled:  domain.OrderStatusCancelled,
	}
	for backend, want := range cases {
		got := toOrder(domain.BackendOrder{OrderID: "1", OrderStatus: backend}, 1, now)
		if got.Status != want {
			t.Errorf("%s: got %s, want %s", backend, got.Status, want)
		}
	}
}

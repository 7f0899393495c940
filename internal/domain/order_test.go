package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

// helper для создания базового pending-заказа.
func makeOrder() domain.Order {
	return domain.NewOrder(1, domain.OrderForm{
		LicenseNumber: "A123BC",
		Name:          "Ivan",
		PhoneNumber:   "+7 900 000 00 00",
	}, time.Now().UTC())
}

func TestNewOrder_Pending(t *testing.T) {
	order := domain.NewOrder(7, domain.OrderForm{
		LicenseNumber: "  A123BC ",
		Name:          " Ivan",
		PhoneNumber:   "555 ",
	}, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	if order.ID != 7 {
		t.Fatalf("expected id 7, got %d", order.ID)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.LicenseNumber != "A123BC" || order.Name != "Ivan" || order.PhoneNumber != "555" {
		t.Fatalf("expected trimmed fields, got %+v", order)
	}
	if order.RemoteID != "" {
		t.Fatalf("expected empty remote id, got %q", order.RemoteID)
	}
}

func TestOrderTransition_FromPending(t *testing.T) {
	for _, target := range []domain.OrderStatus{domain.OrderStatusCompleted, domain.OrderStatusCancelled} {
		t.Run(string(target), func(t *testing.T) {
			order := makeOrder()
			if err := order.Transition(target); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order.Status != target {
				t.Fatalf("expected %s, got %s", target, order.Status)
			}
		})
	}
}

func TestOrderTransition_Rejected(t *testing.T) {
	cases := []struct {
		name string
		from domain.OrderStatus
		to   domain.OrderStatus
		want error
	}{
		{name: "completed to cancelled", from: domain.OrderStatusCompleted, to: domain.OrderStatusCancelled, want: domain.ErrInvalidTransition},
		{name: "cancelled to completed", from: domain.OrderStatusCancelled, to: domain.OrderStatusCompleted, want: domain.ErrInvalidTransition},
		{name: "completed to completed", from: domain.OrderStatusCompleted, to: domain.OrderStatusCompleted, want: domain.ErrInvalidTransition},
		{name: "pending to pending", from: domain.OrderStatusPending, to: domain.OrderStatusPending, want: domain.ErrInvalidTransition},
		{name: "unknown target", from: domain.OrderStatusPending, to: "washing", want: domain.ErrInvalidStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			order.Status = tc.from

			err := order.Transition(tc.to)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if order.Status != tc.from {
				t.Fatalf("status must stay %s, got %s", tc.from, order.Status)
			}
		})
	}
}

func TestOrderFormValidate(t *testing.T) {
	valid := domain.OrderForm{LicenseNumber: "A1", Name: "N", PhoneNumber: "1"}
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	errs := domain.OrderForm{LicenseNumber: " ", Name: "", PhoneNumber: "\t"}.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", errs)
	}
	if !errors.Is(errs[0], domain.ErrLicenseNumberRequired) ||
		!errors.Is(errs[1], domain.ErrNameRequired) ||
		!errors.Is(errs[2], domain.ErrPhoneNumberRequired) {
		t.Fatalf("unexpected errors order: %v", errs)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	if domain.OrderStatusPending.Terminal() {
		t.Fatal("pending must not be terminal")
	}
	if !domain.OrderStatusCompleted.Terminal() || !domain.OrderStatusCancelled.Terminal() {
		t.Fatal("completed and cancelled must be terminal")
	}
}

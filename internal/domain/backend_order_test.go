package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseBackendStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    BackendStatus
		wantErr bool
	}{
		{raw: "PENDING", want: BackendStatusPending},
		{raw: "in_progress", want: BackendStatusInProgress},
		{raw: " COMPLETED ", want: BackendStatusCompleted},
		{raw: "Cancelled", want: BackendStatusCancelled},
		{raw: "DONE", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseBackendStatus(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Fatalf("expected ErrInvalidStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseBackendStatus(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStatusMapping(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled} {
		if got := BackendStatusOf(s).ClientStatus(); got != s {
			t.Errorf("round trip %s -> %s -> %s", s, BackendStatusOf(s), got)
		}
	}
	if got := BackendStatusInProgress.ClientStatus(); got != OrderStatusPending {
		t.Errorf("IN_PROGRESS must stay in queue, got %s", got)
	}
}

func TestBackendOrderValidateInvariants(t *testing.T) {
	order := BackendOrder{
		OrderID:          "id-1",
		UserName:         "Ivan",
		PhoneNumber:      "555",
		CarLicenseNumber: "A123BC",
		OrderStatus:      BackendStatusPending,
		CreatedAt:        time.Now(),
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	order.OrderStatus = "UNKNOWN"
	order.UserName = ""
	if errs := order.ValidateInvariants(); len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
}

func TestBackendOrderSameCustomer(t *testing.T) {
	backend := BackendOrder{UserName: "Ivan", PhoneNumber: "555", CarLicenseNumber: "A1"}

	if !backend.SameCustomer(Order{Name: "Ivan", PhoneNumber: "555", LicenseNumber: "A1"}) {
		t.Fatal("expected match on identical fields")
	}
	if backend.SameCustomer(Order{Name: "Ivan", PhoneNumber: "556", LicenseNumber: "A1"}) {
		t.Fatal("expected mismatch on different phone")
	}
}

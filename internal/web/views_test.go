package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

func TestBuildOrderCards(t *testing.T) {
	ts := time.Date(2026, 5, 10, 9, 30, 0, 0, time.Local)
	orders := []domain.Order{
		{ID: 1, LicenseNumber: "A1", Name: "Anna", PhoneNumber: "1", Timestamp: ts, Status: domain.OrderStatusPending},
		{ID: 2, LicenseNumber: "B2", Name: "Boris", PhoneNumber: "2", Timestamp: ts, Status: domain.OrderStatusPending},
		{ID: 3, LicenseNumber: "C3", Name: "Clara", PhoneNumber: "3", Timestamp: ts, Status: domain.OrderStatusCompleted},
		{ID: 4, LicenseNumber: "D4", Name: "Denis", PhoneNumber: "4", Timestamp: ts, Status: domain.OrderStatusCancelled},
	}

	cards := BuildOrderCards(orders, ListOptions{AllowComplete: true, AllowCancel: true})
	require.Len(t, cards, 4)

	assert.Equal(t, 1, cards[0].Position)
	assert.Equal(t, "Currently being processed", cards[0].Message)
	assert.Equal(t, "⏳", cards[0].Glyph)
	assert.True(t, cards[0].CanComplete)
	assert.True(t, cards[0].CanCancel)
	assert.Equal(t, "2026-05-10 09:30:00", cards[0].Submitted)

	assert.Equal(t, 2, cards[1].Position)
	assert.Equal(t, "1 cars ahead", cards[1].Message)

	assert.Equal(t, "✅", cards[2].Glyph)
	assert.Equal(t, "Completed", cards[2].StatusLabel)
	assert.False(t, cards[2].HasActions())

	assert.Equal(t, "❌", cards[3].Glyph)
	assert.Equal(t, "Order cancelled", cards[3].Message)
	assert.False(t, cards[3].HasActions())
}

func TestBuildOrderCards_ActionsFollowOptions(t *testing.T) {
	orders := []domain.Order{{ID: 1, Status: domain.OrderStatusPending}}

	cards := BuildOrderCards(orders, ListOptions{AllowCancel: true})
	require.Len(t, cards, 1)
	assert.False(t, cards[0].CanComplete)
	assert.True(t, cards[0].CanCancel)

	cards = BuildOrderCards(orders, ListOptions{})
	assert.False(t, cards[0].HasActions())
}

func TestBuildOrderCards_Empty(t *testing.T) {
	cards := BuildOrderCards(nil, ListOptions{})
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestFormatTimestamp_Zero(t *testing.T) {
	assert.Equal(t, "", formatTimestamp(time.Time{}))
}

func TestBuildOrderCards_KeepsTicketSeparateFromPosition(t *testing.T) {
	cards := BuildOrderCards([]domain.Order{
		{ID: 482913, Status: domain.OrderStatusPending},
		{ID: 17, Status: domain.OrderStatusPending},
	}, ListOptions{})

	require.Len(t, cards, 2)
	assert.Equal(t, 482913, cards[0].ID)
	assert.Equal(t, 1, cards[0].Position)
	assert.Equal(t, 17, cards[1].ID)
	assert.Equal(t, 2, cards[1].Position)
}

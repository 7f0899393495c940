package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

var orderRowColumns = []string{
	"order_id", "user_name", "phone_number", "car_license_number",
	"order_status", "version", "created_at", "updated_at",
}

func newMockOrderRepository(t *testing.T) (domain.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewOrderRepository(NewStore(db)), mock
}

func TestOrderRepository_CreateUniqueViolation(t *testing.T) {
	repo, mock := newMockOrderRepository(t)
	order := sampleOrder("order-1", time.Now().UTC())

	mock.ExpectExec("INSERT INTO backend_orders").
		WithArgs(order.OrderID, order.UserName, order.PhoneNumber, order.CarLicenseNumber,
			"PENDING", int64(0), order.CreatedAt, order.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(order)
	require.ErrorIs(t, err, domain.ErrOrderVersionConflict)
}

func TestOrderRepository_GetNotFound(t *testing.T) {
	repo, mock := newMockOrderRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM backend_orders WHERE order_id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	_, err := repo.Get("missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_ListOrdersBySequence(t *testing.T) {
	repo, mock := newMockOrderRepository(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(orderRowColumns).
		AddRow("b", "Boris", "2", "B2", "PENDING", int64(0), now, now).
		AddRow("a", "Anna", "1", "A1", "COMPLETED", int64(1), now, now)
	mock.ExpectQuery("SELECT (.+) FROM backend_orders ORDER BY seq ASC").
		WillReturnRows(rows).RowsWillBeClosed()

	orders, err := repo.List()
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "b", orders[0].OrderID)
	require.Equal(t, domain.BackendStatusCompleted, orders[1].OrderStatus)
	require.Equal(t, int64(1), orders[1].Version)
}

func TestOrderRepository_ListByStatusQueryError(t *testing.T) {
	repo, mock := newMockOrderRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM backend_orders WHERE order_status = \\$1").
		WithArgs("PENDING").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByStatus(domain.BackendStatusPending)
	require.Error(t, err)
	require.Contains(t, err.Error(), "list orders by status")
}

func TestOrderRepository_SaveSuccess(t *testing.T) {
	repo, mock := newMockOrderRepository(t)
	order := sampleOrder("order-1", time.Now().UTC())
	order.OrderStatus = domain.BackendStatusCancelled

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE backend_orders").
		WithArgs(order.UserName, order.PhoneNumber, order.CarLicenseNumber, "CANCELLED",
			order.UpdatedAt, order.OrderID, int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(order))
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repo, mock := newMockOrderRepository(t)
	order := sampleOrder("order-1", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE backend_orders").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT order_id FROM backend_orders WHERE order_id = \\$1").
		WithArgs(order.OrderID).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(order.OrderID))
	mock.ExpectRollback()

	require.ErrorIs(t, repo.Save(order), domain.ErrOrderVersionConflict)
}

func TestOrderRepository_SaveMissingOrder(t *testing.T) {
	repo, mock := newMockOrderRepository(t)
	order := sampleOrder("order-1", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE backend_orders").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT order_id FROM backend_orders WHERE order_id = \\$1").
		WithArgs(order.OrderID).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
	mock.ExpectRollback()

	require.ErrorIs(t, repo.Save(order), domain.ErrOrderNotFound)
}

func TestOrderRepository_Delete(t *testing.T) {
	repo, mock := newMockOrderRepository(t)

	mock.ExpectExec("DELETE FROM backend_orders WHERE order_id = \\$1").
		WithArgs("order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM backend_orders WHERE order_id = \\$1").
		WithArgs("order-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete("order-1"))
	require.ErrorIs(t, repo.Delete("order-1"), domain.ErrOrderNotFound)
}

package orderapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/orderapi"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeService — минимальная реализация REST API сервиса заказов.
type fakeService struct {
	mu       sync.Mutex
	orders   []domain.BackendOrder
	nextID   int
	requests []string
	failWith int
	// hideCreatedID убирает orderId из ответа на создание.
	hideCreatedID bool
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if f.failWith != 0 {
		w.WriteHeader(f.failWith)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/orders")
	switch {
	case r.Method == http.MethodGet && path == "/api_status":
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	case r.Method == http.MethodGet && path == "":
		_ = json.NewEncoder(w).Encode(f.orders)
	case r.Method == http.MethodPost && path == "":
		var in domain.BackendOrder
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		in.OrderID = strings.Repeat("0", 3) + "-abc-" + strconv.Itoa(100000+f.nextID)
		in.CreatedAt = fixedNow.Add(-time.Minute)
		f.orders = append(f.orders, in)
		w.WriteHeader(http.StatusCreated)
		if f.hideCreatedID {
			in.OrderID = ""
		}
		_ = json.NewEncoder(w).Encode(in)
	case r.Method == http.MethodPatch && strings.HasSuffix(path, "/status"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/status")
		var body struct {
			Status domain.BackendStatus `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for i := range f.orders {
			if f.orders[i].OrderID == id {
				f.orders[i].OrderStatus = body.Status
				_ = json.NewEncoder(w).Encode(f.orders[i])
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodDelete:
		id := strings.TrimPrefix(path, "/")
		for i := range f.orders {
			if f.orders[i].OrderID == id {
				f.orders = append(f.orders[:i], f.orders[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeService) lastRequest() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeService) fail(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = code
}

func (f *fakeService) forget() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = nil
}

func (f *fakeService) snapshot() []domain.BackendOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.BackendOrder(nil), f.orders...)
}

func newClient(t *testing.T, svc http.Handler) (*orderapi.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(svc)
	t.Cleanup(server.Close)
	return orderapi.New(server.URL+"/api", orderapi.WithClock(func() time.Time { return fixedNow })), server
}

func TestClient_CheckAvailability(t *testing.T) {
	svc := &fakeService{}
	client, server := newClient(t, svc)

	assert.True(t, client.CheckAvailability(context.Background()))
	assert.Equal(t, "GET /api/orders/api_status", svc.lastRequest())

	svc.fail(http.StatusServiceUnavailable)
	assert.False(t, client.CheckAvailability(context.Background()))

	server.Close()
	assert.False(t, client.CheckAvailability(context.Background()))
}

func TestClient_GetAllMapsOrders(t *testing.T) {
	svc := &fakeService{orders: []domain.BackendOrder{
		{OrderID: "a1b2-c3d4-5678-9012", UserName: "Anna", PhoneNumber: "111", CarLicenseNumber: "A1", OrderStatus: domain.BackendStatusPending},
		{OrderID: "ffff-0000-0000-0042", UserName: "Boris", PhoneNumber: "222", CarLicenseNumber: "B2", OrderStatus: domain.BackendStatusInProgress,
			CreatedAt: fixedNow.Add(-time.Hour)},
		{OrderID: "x-3", UserName: "Vera", PhoneNumber: "333", CarLicenseNumber: "C3", OrderStatus: domain.BackendStatusCancelled},
	}}
	client, _ := newClient(t, svc)

	orders, err := client.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)

	assert.Equal(t, 789012, orders[0].ID)
	assert.Equal(t, "A1", orders[0].LicenseNumber)
	assert.Equal(t, "Anna", orders[0].Name)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status)
	assert.Equal(t, fixedNow, orders[0].Timestamp, "missing createdAt falls back to now")
	assert.Equal(t, "a1b2-c3d4-5678-9012", orders[0].RemoteID)

	assert.Equal(t, 42, orders[1].ID)
	assert.Equal(t, domain.OrderStatusPending, orders[1].Status, "IN_PROGRESS stays in the queue")
	assert.Equal(t, fixedNow.Add(-time.Hour), orders[1].Timestamp)

	assert.Equal(t, 3, orders[2].ID)
	assert.Equal(t, domain.OrderStatusCancelled, orders[2].Status)
}

func TestClient_GetAllKeepsTicketsStableAndUnique(t *testing.T) {
	svc := &fakeService{orders: []domain.BackendOrder{
		{OrderID: "order-1-000777", OrderStatus: domain.BackendStatusPending},
		{OrderID: "order-2-000777", OrderStatus: domain.BackendStatusPending},
	}}
	client, _ := newClient(t, svc)

	first, err := client.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 777, first[0].ID)
	assert.Equal(t, 778, first[1].ID, "collision resolved by increment")

	second, err := client.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
}

func TestClient_GetAllError(t *testing.T) {
	svc := &fakeService{failWith: http.StatusInternalServerError}
	client, _ := newClient(t, svc)

	_, err := client.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, orderapi.IsStatus(err, http.StatusInternalServerError))
}

func TestClient_CreateAndUpdateStatusByRemoteID(t *testing.T) {
	svc := &fakeService{}
	client, _ := newClient(t, svc)

	created, err := client.Create(context.Background(), domain.OrderForm{
		LicenseNumber: " A123BC ", Name: "Anna", PhoneNumber: "111",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, created.Status)
	assert.Equal(t, "A123BC", created.LicenseNumber)
	assert.NotEmpty(t, created.RemoteID)
	assert.Equal(t, 100001, created.ID)

	updated, err := client.UpdateStatus(context.Background(), created.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, updated.Status)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "PATCH /api/orders/"+created.RemoteID+"/status", svc.lastRequest())
}

func TestClient_UpdateStatusUnknownTicket(t *testing.T) {
	client, _ := newClient(t, &fakeService{})

	_, err := client.UpdateStatus(context.Background(), 99, domain.OrderStatusCancelled)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestClient_ReconcileByContentWhenCreateHidesID(t *testing.T) {
	svc := &fakeService{hideCreatedID: true}
	client, _ := newClient(t, svc)

	created, err := client.Create(context.Background(), domain.OrderForm{LicenseNumber: "A1", Name: "Anna", PhoneNumber: "111"})
	require.NoError(t, err)
	assert.Empty(t, created.RemoteID)
	assert.Equal(t, int(fixedNow.UnixMilli()), created.ID)

	updated, err := client.UpdateStatus(context.Background(), created.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "ticket survives reconciliation")
	assert.Equal(t, svc.snapshot()[0].OrderID, updated.RemoteID)
	assert.Equal(t, "PATCH /api/orders/"+updated.RemoteID+"/status", svc.lastRequest())
}

func TestClient_ReconcileIdenticalOrdersFirstMatchWins(t *testing.T) {
	svc := &fakeService{hideCreatedID: true}
	client, _ := newClient(t, svc)

	form := domain.OrderForm{LicenseNumber: "A1", Name: "Anna", PhoneNumber: "111"}
	first, err := client.Create(context.Background(), form)
	require.NoError(t, err)
	second, err := client.Create(context.Background(), form)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	// Заказы неразличимы: второй талон связывается с первым заказом сервиса.
	_, err = client.UpdateStatus(context.Background(), second.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	stored := svc.snapshot()
	assert.Equal(t, domain.BackendStatusCancelled, stored[0].OrderStatus)
	assert.Equal(t, domain.BackendStatusPending, stored[1].OrderStatus)

	// Связанный заказ больше не выбирается, первый талон получает оставшийся.
	_, err = client.UpdateStatus(context.Background(), first.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	stored = svc.snapshot()
	assert.Equal(t, domain.BackendStatusCancelled, stored[0].OrderStatus)
	assert.Equal(t, domain.BackendStatusCompleted, stored[1].OrderStatus)
}

func TestClient_ReconcileSkipsOrdersOwnedByOtherTickets(t *testing.T) {
	svc := &fakeService{orders: []domain.BackendOrder{
		{OrderID: "dup-000001", UserName: "Anna", PhoneNumber: "111", CarLicenseNumber: "A1", OrderStatus: domain.BackendStatusPending},
	}}
	client, _ := newClient(t, svc)

	loaded, err := client.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	svc.hideCreatedID = true
	created, err := client.Create(context.Background(), domain.OrderForm{LicenseNumber: "A1", Name: "Anna", PhoneNumber: "111"})
	require.NoError(t, err)

	require.NoError(t, client.Delete(context.Background(), created.ID))
	remaining := svc.snapshot()
	require.Len(t, remaining, 1)
	assert.Equal(t, "dup-000001", remaining[0].OrderID, "loaded order keeps its ticket")
}

func TestClient_ReconcileNoMatch(t *testing.T) {
	svc := &fakeService{hideCreatedID: true}
	client, _ := newClient(t, svc)

	created, err := client.Create(context.Background(), domain.OrderForm{LicenseNumber: "Z", Name: "Nobody", PhoneNumber: "0"})
	require.NoError(t, err)
	svc.forget()

	err = client.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, domain.ErrBackendOrderNotFound)
}

func TestClient_Delete(t *testing.T) {
	svc := &fakeService{}
	client, _ := newClient(t, svc)

	created, err := client.Create(context.Background(), domain.OrderForm{LicenseNumber: "A1", Name: "Anna", PhoneNumber: "111"})
	require.NoError(t, err)

	require.NoError(t, client.Delete(context.Background(), created.ID))
	assert.Equal(t, "DELETE /api/orders/"+created.RemoteID, svc.lastRequest())
	assert.Empty(t, svc.snapshot())

	// После удаления талон забыт.
	require.ErrorIs(t, client.Delete(context.Background(), created.ID), domain.ErrOrderNotFound)
}

func TestClient_DeleteRemoteNotFound(t *testing.T) {
	svc := &fakeService{}
	client, _ := newClient(t, svc)

	created, err := client.Create(context.Background(), domain.OrderForm{LicenseNumber: "A1", Name: "Anna", PhoneNumber: "111"})
	require.NoError(t, err)
	svc.forget()

	err = client.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.True(t, orderapi.IsStatus(err, http.StatusNotFound))
}

func TestClient_HonoursContext(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client, _ := newClient(t, slow)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GetAll(ctx)
	require.Error(t, err)
}

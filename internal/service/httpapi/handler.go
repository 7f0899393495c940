// Package httpapi — REST API сервиса заказов (/api/orders).
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/httplog"
	"github.com/vladislavdragonenkov/carwash/internal/service/orders"
)

const maxBodyBytes = 64 << 10

// OrderService — методы сервиса, которые нужны обработчикам.
type OrderService interface {
	Create(ctx context.Context, in orders.Input) (domain.BackendOrder, error)
	Get(ctx context.Context, id string) (domain.BackendOrder, error)
	List(ctx context.Context) ([]domain.BackendOrder, error)
	ListByStatus(ctx context.Context, status domain.BackendStatus) ([]domain.BackendOrder, error)
	Update(ctx context.Context, id string, in orders.Input) (domain.BackendOrder, error)
	UpdateStatus(ctx context.Context, id string, status domain.BackendStatus) (domain.BackendOrder, error)
	Delete(ctx context.Context, id string) error
	Timeline(ctx context.Context, id string) ([]domain.TimelineEvent, error)
}

// Handler обслуживает REST-эндпоинты заказов.
type Handler struct {
	svc    OrderService
	logger *log.Entry
}

// NewHandler создаёт Handler.
func NewHandler(svc OrderService, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "orders-http")
	}
	return &Handler{svc: svc, logger: logger}
}

// Router возвращает http.Handler с маршрутами под /api/orders.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httplog.Middleware(h.logger))

	r.Route("/api/orders", h.RegisterRoutes)
	return r
}

// RegisterRoutes регистрирует эндпоинты заказов на роутере.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api_status", h.Status)
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/status/{status}", h.ListByStatus)
	r.Get("/{orderId}", h.Get)
	r.Put("/{orderId}", h.Update)
	r.Patch("/{orderId}/status", h.UpdateStatus)
	r.Delete("/{orderId}", h.Delete)
	r.Get("/{orderId}/timeline", h.Timeline)
}

type orderRequest struct {
	UserName         string `json:"userName"`
	PhoneNumber      string `json:"phoneNumber"`
	CarLicenseNumber string `json:"carLicenseNumber"`
	OrderStatus      string `json:"orderStatus"`
}

func (req orderRequest) input() (orders.Input, error) {
	in := orders.Input{
		UserName:         req.UserName,
		PhoneNumber:      req.PhoneNumber,
		CarLicenseNumber: req.CarLicenseNumber,
	}
	if req.OrderStatus != "" {
		status, err := domain.ParseBackendStatus(req.OrderStatus)
		if err != nil {
			return orders.Input{}, err
		}
		in.OrderStatus = status
	}
	return in, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

// Status — проверка доступности для клиентского портала.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseBackendStatus(chi.URLParam(r, "status"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	list, err := h.svc.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeError(w, err)
		return
	}

	order, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/orders/"+order.OrderID)
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeError(w, err)
		return
	}

	order, err := h.svc.Update(r.Context(), chi.URLParam(r, "orderId"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	status, err := domain.ParseBackendStatus(req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Timeline(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// statusCode отображает ошибку сервиса в HTTP-код.
func statusCode(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsVersionConflict(err):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		h.logger.WithError(err).Error("order request failed")
		message = http.StatusText(code)
	}
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

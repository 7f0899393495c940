// Package web отдаёт HTML-страницы портала: форму заказа и очередь.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/health"
	"github.com/vladislavdragonenkov/carwash/internal/httplog"
	"github.com/vladislavdragonenkov/carwash/internal/portal"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	actionComplete = "complete"
	actionCancel   = "cancel"
)

// Queue — операции контроллера портала, которые нужны страницам.
type Queue interface {
	Mode() portal.Mode
	Orders() []domain.Order
	Confirmation() (portal.Submission, bool)
	SubmitOrder(ctx context.Context, form domain.OrderForm) (portal.Submission, error)
	CompleteOrder(ctx context.Context, id int, confirmed bool) error
	CancelOrder(ctx context.Context, id int, confirmed bool) error
	ClearAll(ctx context.Context, confirmed bool) (portal.ClearReport, error)
}

// Options задаёт параметры Handler.
type Options struct {
	Logger         *log.Entry
	List           ListOptions
	Health         *health.Handler
	MetricsHandler http.Handler
}

// Option настраивает Handler.
type Option func(*Options)

// WithLogger задаёт logger обработчиков.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithListOptions включает действия в списке заказов.
func WithListOptions(list ListOptions) Option {
	return func(opts *Options) {
		opts.List = list
	}
}

// WithHealth подключает /healthz, /livez и /readyz.
func WithHealth(h *health.Handler) Option {
	return func(opts *Options) {
		opts.Health = h
	}
}

// WithMetricsHandler подключает /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(opts *Options) {
		opts.MetricsHandler = h
	}
}

// Handler обслуживает страницы портала.
type Handler struct {
	queue   Queue
	logger  *log.Entry
	list    ListOptions
	health  *health.Handler
	metrics http.Handler
	pages   map[string]*template.Template
}

// NewHandler создаёт Handler и разбирает встроенные шаблоны.
func NewHandler(queue Queue, options ...Option) (*Handler, error) {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "portal-web")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Handler{
		queue:   queue,
		logger:  logger,
		list:    opts.List,
		health:  opts.Health,
		metrics: opts.MetricsHandler,
		pages:   pages,
	}, nil
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"form.html", "list.html", "confirm.html"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// Router возвращает маршруты портала.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httplog.Middleware(h.logger))

	r.Get("/", h.FormPage)
	r.Post("/orders", h.Submit)
	r.Get("/orders", h.ListPage)
	r.Get("/orders/clear", h.ConfirmClear)
	r.Post("/orders/clear", h.Clear)
	r.Get("/orders/{id}/{action}", h.ConfirmAction)
	r.Post("/orders/{id}/{action}", h.Action)

	if h.health != nil {
		h.health.Routes(r)
	} else {
		r.Get("/livez", health.LivenessHandler)
	}
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	return r
}

// FormPage рисует форму заказа.
func (h *Handler) FormPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form.html", newFormPage(h.queue, domain.OrderForm{}, r.URL.Query().Get("alert")))
}

// Submit принимает форму. После успеха редирект на форму, поэтому поля пустые.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "form.html", newFormPage(h.queue, domain.OrderForm{}, "Invalid form data"))
		return
	}

	form := domain.OrderForm{
		LicenseNumber: r.PostFormValue("licenseNumber"),
		Name:          r.PostFormValue("name"),
		PhoneNumber:   r.PostFormValue("phoneNumber"),
	}

	if _, err := h.queue.SubmitOrder(r.Context(), form); err != nil {
		status := http.StatusBadGateway
		message := "Failed to submit order: " + err.Error()
		if domain.IsValidation(err) {
			status = http.StatusUnprocessableEntity
			message = validationMessage(err)
		}
		h.render(w, status, "form.html", newFormPage(h.queue, form, message))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ListPage рисует очередь.
func (h *Handler) ListPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "list.html", newListPage(h.queue, h.list, r.URL.Query().Get("alert")))
}

// ConfirmAction спрашивает подтверждение перед complete/cancel.
func (h *Handler) ConfirmAction(w http.ResponseWriter, r *http.Request) {
	id, action, ok := h.parseAction(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	verb := "mark ticket #%d as completed"
	if action == actionCancel {
		verb = "cancel ticket #%d"
	}
	h.render(w, http.StatusOK, "confirm.html", ConfirmPage{
		Title:    "Confirm action",
		Question: "Are you sure you want to " + fmt.Sprintf(verb, id) + "?",
		Action:   fmt.Sprintf("/orders/%d/%s", id, action),
		Cancel:   "/orders",
	})
}

// Action выполняет complete/cancel. Без confirm=yes ничего не меняется.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	id, action, ok := h.parseAction(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	confirmed := r.PostFormValue("confirm") == "yes"

	var err error
	if action == actionComplete {
		err = h.queue.CompleteOrder(r.Context(), id, confirmed)
	} else {
		err = h.queue.CancelOrder(r.Context(), id, confirmed)
	}
	if err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"ticket": id,
			"action": action,
		}).Warn("order action failed")
		redirectWithAlert(w, r, "/orders", fmt.Sprintf("Failed to %s order #%d: %s", action, id, err))
		return
	}

	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

// ConfirmClear спрашивает подтверждение перед очисткой очереди.
func (h *Handler) ConfirmClear(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusOK, "confirm.html", ConfirmPage{
		Title:    "Clear all orders",
		Question: "Are you sure you want to clear all orders? This action cannot be undone.",
		Action:   "/orders/clear",
		Cancel:   "/",
	})
}

// Clear очищает очередь и показывает, какие заказы удалить не удалось.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	report, err := h.queue.ClearAll(r.Context(), r.PostFormValue("confirm") == "yes")
	if err != nil {
		redirectWithAlert(w, r, "/", clearMessage(report, err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) parseAction(r *http.Request) (int, string, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, "", false
	}
	switch action := chi.URLParam(r, "action"); action {
	case actionComplete:
		return id, action, h.list.AllowComplete
	case actionCancel:
		return id, action, h.list.AllowCancel
	default:
		return 0, "", false
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.WithError(err).WithField("page", page).Error("render page failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func redirectWithAlert(w http.ResponseWriter, r *http.Request, path, alert string) {
	http.Redirect(w, r, path+"?alert="+url.QueryEscape(alert), http.StatusSeeOther)
}

func validationMessage(err error) string {
	var fields []string
	for _, candidate := range []error{domain.ErrLicenseNumberRequired, domain.ErrNameRequired, domain.ErrPhoneNumberRequired} {
		if errors.Is(err, candidate) {
			fields = append(fields, candidate.Error())
		}
	}
	if len(fields) == 0 {
		return err.Error()
	}
	return "Please fill in all fields: " + strings.Join(fields, "; ")
}

func clearMessage(report portal.ClearReport, err error) string {
	if !report.Partial() {
		return "Failed to clear orders: " + err.Error()
	}
	ids := make([]string, 0, len(report.Failed))
	for _, failure := range report.Failed {
		ids = append(ids, "#"+strconv.Itoa(failure.ID))
	}
	return fmt.Sprintf("Cleared %d orders, failed to delete %s", len(report.Deleted), strings.Join(ids, ", "))
}

package web

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/portal"
)

const timestampLayout = "2006-01-02 15:04:05"

// ListOptions включает действия над pending-заказами в списке.
type ListOptions struct {
	AllowComplete bool
	AllowCancel   bool
}

// OrderCard — карточка заказа в списке.
type OrderCard struct {
	ID            int
	Position      int
	LicenseNumber string
	Name          string
	PhoneNumber   string
	Submitted     string
	Status        domain.OrderStatus
	Glyph         string
	StatusLabel   string
	Message       string
	CanComplete   bool
	CanCancel     bool
}

// HasActions сообщает, что у карточки есть хотя бы одна кнопка.
func (c OrderCard) HasActions() bool {
	return c.CanComplete || c.CanCancel
}

// BuildOrderCards строит карточки в порядке очереди: позиция равна index+1,
// число машин впереди равно index.
func BuildOrderCards(orders []domain.Order, opts ListOptions) []OrderCard {
	cards := make([]OrderCard, 0, len(orders))
	for index, order := range orders {
		glyph, label, message := statusPresentation(order.Status, index)
		pending := order.Status == domain.OrderStatusPending

		cards = append(cards, OrderCard{
			ID:            order.ID,
			Position:      index + 1,
			LicenseNumber: order.LicenseNumber,
			Name:          order.Name,
			PhoneNumber:   order.PhoneNumber,
			Submitted:     formatTimestamp(order.Timestamp),
			Status:        order.Status,
			Glyph:         glyph,
			StatusLabel:   label,
			Message:       message,
			CanComplete:   pending && opts.AllowComplete,
			CanCancel:     pending && opts.AllowCancel,
		})
	}
	return cards
}

func statusPresentation(status domain.OrderStatus, index int) (glyph, label, message string) {
	switch status {
	case domain.OrderStatusCompleted:
		return "✅", "Completed", "Order completed"
	case domain.OrderStatusCancelled:
		return "❌", "Cancelled", "Order cancelled"
	default:
		if index == 0 {
			return "⏳", "Waiting", "Currently being processed"
		}
		return "⏳", "Waiting", fmt.Sprintf("%d cars ahead", index)
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(timestampLayout)
}

// Confirmation — баннер о принятом заказе.
type Confirmation struct {
	Ticket    int
	CarsAhead int
}

// FormPage — модель страницы формы.
type FormPage struct {
	Mode         portal.Mode
	Total        int
	Confirmation *Confirmation
	Form         domain.OrderForm
	Alert        string
}

// ListPage — модель страницы списка.
type ListPage struct {
	Mode  portal.Mode
	Total int
	Cards []OrderCard
	Alert string
}

// ConfirmPage — страница подтверждения разрушающего действия.
type ConfirmPage struct {
	Title    string
	Question string
	Action   string
	Cancel   string
	Alert    string
}

func newFormPage(q Queue, form domain.OrderForm, alert string) FormPage {
	page := FormPage{
		Mode:  q.Mode(),
		Total: len(q.Orders()),
		Form:  form,
		Alert: alert,
	}
	if sub, ok := q.Confirmation(); ok {
		page.Confirmation = &Confirmation{Ticket: sub.Order.ID, CarsAhead: sub.Position}
	}
	return page
}

func newListPage(q Queue, opts ListOptions, alert string) ListPage {
	orders := q.Orders()
	return ListPage{
		Mode:  q.Mode(),
		Total: len(orders),
		Cards: BuildOrderCards(orders, opts),
		Alert: alert,
	}
}

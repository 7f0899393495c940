package domain

// OrderRepository описывает требования к хранилищу заказов сервиса.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order BackendOrder) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (BackendOrder, error)
	// List возвращает все заказы в порядке создания (это и есть очередь).
	List() ([]BackendOrder, error)
	// ListByStatus возвращает заказы с указанным статусом в порядке создания.
	ListByStatus(status BackendStatus) ([]BackendOrder, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order BackendOrder) error
	// Delete удаляет заказ или возвращает ErrOrderNotFound.
	Delete(id string) error
}

package domain

import "errors"

var (
	// Ошибка пустого номера машины.
	ErrLicenseNumberRequired = errors.New("license number is required")
	// Ошибка пустого имени клиента.
	ErrNameRequired = errors.New("name is required")
	// Ошибка пустого телефона.
	ErrPhoneNumberRequired = errors.New("phone number is required")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// ErrInvalidStatus — статус не входит в поддерживаемый набор.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidTransition — переход между статусами запрещён (например, из терминального).
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrBackendOrderNotFound — для клиентского заказа не нашлось записи в сервисе.
	ErrBackendOrderNotFound = errors.New("backend order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrConfirmationRequired — разрушающее действие вызвано без подтверждения.
	ErrConfirmationRequired = errors.New("confirmation required")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsNotFound сообщает, что заказ не найден ни локально, ни в сервисе.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrBackendOrderNotFound)
}

// IsValidation сообщает, что ошибка вызвана некорректными входными данными.
func IsValidation(err error) bool {
	return errors.Is(err, ErrLicenseNumberRequired) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrPhoneNumberRequired) ||
		errors.Is(err, ErrOrderIDRequired) ||
		errors.Is(err, ErrInvalidStatus)
}

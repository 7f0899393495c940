package orderapi

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError — сервис ответил кодом вне диапазона 2xx.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.Code, http.StatusText(e.Code))
}

// IsStatus сообщает, что err — StatusError с указанным кодом.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

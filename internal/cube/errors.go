package cube

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig — неверная конфигурация клиента.
var ErrInvalidConfig = errors.New("invalid cube config")

// APIError — ответ платформы с кодом 4xx (кроме 404).
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cube %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

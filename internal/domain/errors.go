package domain

import "errors"

// Ошибки удалённой платформы.
var (
	// ErrRemoteUnavailable — платформа недоступна (сеть, 5xx).
	// Отличается от "задача ещё выполняется".
	ErrRemoteUnavailable = errors.New("remote platform unavailable")

	// ErrNotFound — ресурс не найден на платформе.
	ErrNotFound = errors.New("resource not found")
)

package domain

import "strings"

// NodeStatus — статус plugin instance на удалённой платформе.
//
// Жизненный цикл:
//
//	created → waiting → scheduled → started → registeringFiles → finishedSuccessfully
//	                                                            ↘ finishedWithError
//	          (или) → cancelled
type NodeStatus string

const (
	// NodeStatusCreated — узел создан, ещё не поставлен в очередь.
	NodeStatusCreated NodeStatus = "created"

	// NodeStatusWaiting — узел ждёт завершения родителя.
	NodeStatusWaiting NodeStatus = "waiting"

	// NodeStatusScheduled — узел передан compute-ресурсу.
	NodeStatusScheduled NodeStatus = "scheduled"

	// NodeStatusStarted — узел выполняется.
	NodeStatusStarted NodeStatus = "started"

	// NodeStatusRegisteringFiles — выходные файлы регистрируются в хранилище.
	NodeStatusRegisteringFiles NodeStatus = "registeringFiles"

	// NodeStatusFinishedSuccessfully — узел успешно завершён.
	NodeStatusFinishedSuccessfully NodeStatus = "finishedSuccessfully"

	// NodeStatusFinishedWithError — узел завершился с ошибкой.
	NodeStatusFinishedWithError NodeStatus = "finishedWithError"

	// NodeStatusCancelled — узел отменён.
	NodeStatusCancelled NodeStatus = "cancelled"

	// NodeStatusUnknown — статус не получен или не распознан.
	NodeStatusUnknown NodeStatus = "unknown"
)

// IsTerminal возвращает true, если статус финальный.
//
// Финальным считается любой статус, в тексте которого есть "finished"
// (без учёта регистра): платформа может добавлять новые варианты.
func (s NodeStatus) IsTerminal() bool {
	return strings.Contains(strings.ToLower(string(s)), "finished")
}

// Succeeded возвращает true только для finishedSuccessfully.
func (s NodeStatus) Succeeded() bool {
	return s == NodeStatusFinishedSuccessfully
}

// IsCancelled возвращает true, если узел отменён.
func (s NodeStatus) IsCancelled() bool {
	return s == NodeStatusCancelled
}

// String возвращает строковое представление NodeStatus.
func (s NodeStatus) String() string {
	return string(s)
}

// ParseNodeStatus парсит строку в NodeStatus.
// Неизвестные значения сохраняются как есть, пустая строка — unknown.
func ParseNodeStatus(s string) NodeStatus {
	if s == "" {
		return NodeStatusUnknown
	}
	return NodeStatus(s)
}

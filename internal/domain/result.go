package domain

import "time"

// UnresolvedNodeID — ID, который получает неразрешённая ссылка.
const UnresolvedNodeID = -1

// WaitOutcome — причина, по которой ожидание завершилось.
type WaitOutcome string

const (
	// WaitSucceeded — узел завершился со статусом finishedSuccessfully.
	WaitSucceeded WaitOutcome = "succeeded"

	// WaitFailed — узел завершился со статусом finishedWithError (или отменён).
	WaitFailed WaitOutcome = "failed"

	// WaitExhausted — исчерпан лимит опросов.
	WaitExhausted WaitOutcome = "exhausted"

	// WaitUnresolved — ссылка не разрешилась в узел.
	WaitUnresolved WaitOutcome = "unresolved"

	// WaitUnreachable — платформа недоступна.
	WaitUnreachable WaitOutcome = "unreachable"

	// WaitCancelled — ожидание прервано контекстом.
	WaitCancelled WaitOutcome = "cancelled"

	// WaitSkipped — этап не выполнялся (предыдущий этап не завершился).
	WaitSkipped WaitOutcome = "skipped"
)

// WaitResult — результат ожидания узла.
type WaitResult struct {
	// Finished — true только если узел завершился успешно.
	Finished bool `json:"finished"`

	// Status — последний наблюдаемый статус.
	Status NodeStatus `json:"status"`

	// Node — последний снимок узла.
	Node NodeInfo `json:"node_info"`

	// PollCount — количество выполненных опросов.
	PollCount int `json:"poll_count"`

	// NodeID — ID узла или UnresolvedNodeID.
	NodeID int `json:"node_id"`

	// Outcome — причина завершения ожидания.
	Outcome WaitOutcome `json:"outcome"`
}

// Unresolved возвращает результат для неразрешённой ссылки.
func Unresolved() WaitResult {
	return WaitResult{
		Status:  NodeStatusUnknown,
		NodeID:  UnresolvedNodeID,
		Outcome: WaitUnresolved,
	}
}

// Skipped возвращает результат для невыполненного этапа.
func Skipped() WaitResult {
	return WaitResult{
		Status:  NodeStatusUnknown,
		NodeID:  UnresolvedNodeID,
		Outcome: WaitSkipped,
	}
}

// SeedResult — результат посадки seed узла для одного входа.
type SeedResult struct {
	// Status — true, если seed узел создан.
	Status bool `json:"status"`

	// Message — описание результата.
	Message string `json:"message"`

	// Input — путь входного файла.
	Input string `json:"input"`

	// BranchInstanceID — ID seed узла (корень ветки) или -1.
	BranchInstanceID int `json:"branchInstanceID"`

	// Attempts — количество попыток.
	Attempts int `json:"attempts"`

	// Failed — ошибки неудачных попыток.
	Failed []string `json:"failed,omitempty"`
}

// TreeResult — результат роста дерева одной ветки.
type TreeResult struct {
	// Status — true, если последний этап завершился успешно.
	Status bool `json:"status"`

	// Message — описание результата.
	Message string `json:"message"`

	// Result — результат последнего этапа.
	Result WaitResult `json:"result"`

	// History — запланированные workflow.
	History *History `json:"history,omitempty"`

	// Joins — созданные join узлы.
	Joins *JoinRegistry `json:"topological,omitempty"`

	// Error — текст ошибки, если ветка прервалась.
	Error string `json:"error,omitempty"`
}

// TreeRecord — запись журнала леса: {seed, tree} для одного входа.
type TreeRecord struct {
	// Branch — идентификатор ветки.
	Branch string `json:"branch"`

	// StartedAt — время начала ветки.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения ветки.
	FinishedAt time.Time `json:"finished_at"`

	Seed SeedResult `json:"seed"`
	Tree TreeResult `json:"tree"`
}

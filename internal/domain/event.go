package domain

import "time"

// BranchStatus — состояние ветки в событиях.
type BranchStatus string

const (
	BranchStarted   BranchStatus = "started"
	BranchSucceeded BranchStatus = "succeeded"
	BranchFailed    BranchStatus = "failed"
)

// BranchEvent — событие жизненного цикла ветки.
type BranchEvent struct {
	// Branch — идентификатор ветки.
	Branch string `json:"branch"`

	// Input — путь входа ветки.
	Input string `json:"input"`

	Status BranchStatus `json:"status"`

	// SeedID — ID seed узла (0, если ещё не посажен).
	SeedID int `json:"seed_id,omitempty"`

	// NodeID — ID последнего узла, которого дождалась ветка.
	NodeID int `json:"node_id,omitempty"`

	// Outcome — причина завершения последнего ожидания.
	Outcome WaitOutcome `json:"outcome,omitempty"`

	Error string `json:"error,omitempty"`

	Time time.Time `json:"time"`
}

package orchestrator

import (
	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// BranchState — состояние одной ветки в памяти.
//
// Создаётся вместе с Flow и живёт до сохранения результата ветки.
// Содержит:
//   - History — запланированные workflow
//   - Joins — созданные join узлы
//   - attach — узел, к которому присоединяется следующий этап
//   - anchor — первый вход следующего join
type BranchState struct {
	History *domain.History
	Joins   *domain.JoinRegistry

	root   int
	attach int
	anchor int

	// completed — завершённые этапы в порядке выполнения.
	completed []string
}

// NewBranchState создаёт состояние ветки с корнем root.
func NewBranchState(root int) *BranchState {
	return &BranchState{
		History: domain.NewHistory(),
		Joins:   domain.NewJoinRegistry(),
		root:    root,
		attach:  root,
		anchor:  root,
	}
}

// Root возвращает корень ветки.
func (s *BranchState) Root() int {
	return s.root
}

// Attach возвращает узел, от которого планируется следующий этап.
func (s *BranchState) Attach() int {
	return s.attach
}

// Anchor возвращает первый вход следующего join.
func (s *BranchState) Anchor() int {
	return s.anchor
}

// Advance переносит точку присоединения на nodeID после этапа stage.
func (s *BranchState) Advance(stage string, nodeID int) {
	s.attach = nodeID
	s.anchor = nodeID
	s.completed = append(s.completed, stage)
}

// Completed возвращает завершённые этапы.
func (s *BranchState) Completed() []string {
	return append([]string(nil), s.completed...)
}

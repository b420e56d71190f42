package orchestrator

import (
	"fmt"
	"strings"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// Resolve разрешает ссылку в ID узла.
//
// Concrete возвращается как есть. Symbolic ищется так:
//   - workflow "topological" (без учёта регистра) — только в joins;
//   - иначе первая запись history, имя которой содержит workflow (с учётом регистра);
//   - внутри выбранной коллекции — первый узел, title которого содержит
//     title ссылки (без учёта регистра).
//
// Первое совпадение выигрывает, неоднозначность не проверяется.
func Resolve(ref domain.NodeRef, history *domain.History, joins *domain.JoinRegistry) (int, error) {
	if ref.IsConcrete() {
		return ref.ID(), nil
	}

	nodes, ok := candidates(ref, history, joins)
	if !ok {
		return domain.UnresolvedNodeID, fmt.Errorf("%w: no workflow matches %q", ErrNodeNotFound, ref.Workflow())
	}

	if id, ok := findTitle(nodes, ref.Title()); ok {
		return id, nil
	}
	return domain.UnresolvedNodeID, fmt.Errorf("%w: %s", ErrNodeNotFound, ref)
}

// findTitle возвращает первый узел, title которого содержит title
// (без учёта регистра).
func findTitle(nodes []domain.NodeInfo, title string) (int, bool) {
	needle := strings.ToLower(title)
	for _, node := range nodes {
		if strings.Contains(strings.ToLower(node.Title), needle) {
			return node.ID, true
		}
	}
	return domain.UnresolvedNodeID, false
}

// candidates выбирает коллекцию узлов, в которой ищется title.
func candidates(ref domain.NodeRef, history *domain.History, joins *domain.JoinRegistry) ([]domain.NodeInfo, bool) {
	if ref.IsTopological() {
		if joins == nil {
			return nil, false
		}
		return joins.Nodes(), true
	}

	if history == nil {
		return nil, false
	}
	for _, entry := range history.Entries() {
		if strings.Contains(entry.Name, ref.Workflow()) {
			return entry.Nodes, true
		}
	}
	return nil, false
}

// countMatches считает узлы, подходящие под ссылку. Нужен только для
// диагностики неоднозначных подстрок.
func countMatches(ref domain.NodeRef, history *domain.History, joins *domain.JoinRegistry) int {
	if ref.IsConcrete() {
		return 1
	}
	nodes, ok := candidates(ref, history, joins)
	if !ok {
		return 0
	}
	needle := strings.ToLower(ref.Title())
	n := 0
	for _, node := range nodes {
		if strings.Contains(strings.ToLower(node.Title), needle) {
			n++
		}
	}
	return n
}

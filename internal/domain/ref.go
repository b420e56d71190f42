package domain

import (
	"fmt"
	"strings"
)

// TopologicalWorkflow — зарезервированное имя workflow.
// Ссылки с этим именем ищутся в JoinRegistry, а не в History.
const TopologicalWorkflow = "topological"

// NodeRef — ссылка на узел.
//
// Либо Concrete (известный ID), либо Symbolic — пара
// (подстрока имени workflow, подстрока title узла), которая
// разрешается по истории ветки.
type NodeRef struct {
	id       int
	workflow string
	title    string
	concrete bool
}

// Concrete создаёт ссылку на известный ID.
func Concrete(id int) NodeRef {
	return NodeRef{id: id, concrete: true}
}

// Symbolic создаёт ссылку по имени workflow и title узла.
func Symbolic(workflow, title string) NodeRef {
	return NodeRef{workflow: workflow, title: title}
}

// Topological создаёт ссылку на join узел по title.
func Topological(title string) NodeRef {
	return Symbolic(TopologicalWorkflow, title)
}

// IsConcrete возвращает true для Concrete ссылок.
func (r NodeRef) IsConcrete() bool {
	return r.concrete
}

// ID возвращает ID Concrete ссылки.
func (r NodeRef) ID() int {
	return r.id
}

// Workflow возвращает подстроку имени workflow.
func (r NodeRef) Workflow() string {
	return r.workflow
}

// Title возвращает подстроку title узла.
func (r NodeRef) Title() string {
	return r.title
}

// IsTopological возвращает true, если ссылка указывает на join узлы.
func (r NodeRef) IsTopological() bool {
	return !r.concrete && strings.EqualFold(r.workflow, TopologicalWorkflow)
}

// String возвращает строковое представление ссылки.
func (r NodeRef) String() string {
	if r.concrete {
		return fmt.Sprintf("node:%d", r.id)
	}
	return fmt.Sprintf("%s/%s", r.workflow, r.title)
}

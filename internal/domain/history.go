package domain

import (
	"encoding/json"
	"sync"
)

// HistoryEntry — запись о запланированном workflow.
//
// Создаётся один раз после планирования и больше не изменяется.
type HistoryEntry struct {
	// Name — имя pipeline, использованное при планировании.
	Name string `json:"name"`

	// Pipeline — найденное на платформе определение pipeline.
	Pipeline Pipeline `json:"pipeline"`

	// ParentID — узел, к которому присоединён workflow.
	ParentID int `json:"parent_id"`

	// WorkflowID — ID созданного workflow.
	WorkflowID int `json:"workflow_id"`

	// Nodes — plugin instances workflow в порядке платформы.
	Nodes []NodeInfo `json:"nodes"`
}

// History — append-only журнал запланированных workflow одной ветки.
//
// Единственный индекс, по которому разрешаются Symbolic ссылки.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

// NewHistory создаёт пустую историю.
func NewHistory() *History {
	return &History{}
}

// Append добавляет запись.
func (h *History) Append(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry.Nodes = append([]NodeInfo(nil), entry.Nodes...)
	h.entries = append(h.entries, entry)
}

// Entries возвращает снимок записей.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len возвращает количество записей.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// MarshalJSON сериализует историю как массив записей.
func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Entries())
}

// JoinRegistry — append-only журнал topological join узлов одной ветки.
type JoinRegistry struct {
	mu    sync.RWMutex
	nodes []NodeInfo
}

// NewJoinRegistry создаёт пустой реестр.
func NewJoinRegistry() *JoinRegistry {
	return &JoinRegistry{}
}

// Append добавляет join узел.
func (r *JoinRegistry) Append(node NodeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, node)
}

// Nodes возвращает снимок join узлов.
func (r *JoinRegistry) Nodes() []NodeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NodeInfo, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Len возвращает количество join узлов.
func (r *JoinRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// MarshalJSON сериализует реестр как {"data": [...]}.
func (r *JoinRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Data []NodeInfo `json:"data"`
	}{Data: r.Nodes()})
}

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// fakePlatform — платформа в памяти для тестов.
//
// Статусы узлов задаются последовательностями: каждый опрос берёт
// следующий элемент, последний повторяется.
type fakePlatform struct {
	mu sync.Mutex

	pipelines []domain.Pipeline
	plugins   []domain.Plugin

	// workflowTitles — titles узлов, которые создаёт workflow pipeline (по ID pipeline).
	workflowTitles map[int][]string

	// statuses — последовательности статусов по title узла.
	statuses map[string][]domain.NodeStatus

	// nodeErrors — ошибки опроса по ID узла (по одной на опрос).
	nodeErrors map[int][]error

	nextID    int
	nodes     map[int]domain.NodeInfo
	polls     map[int]int
	workflows map[int][]domain.NodeInfo

	scheduled []scheduleCall
	joined    []domain.JoinRequest
}

type scheduleCall struct {
	PipelineID int
	PreviousID int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		plugins:        []domain.Plugin{{ID: 7, Name: DefaultJoinPlugin}},
		workflowTitles: make(map[int][]string),
		statuses:       make(map[string][]domain.NodeStatus),
		nodeErrors:     make(map[int][]error),
		nextID:         200,
		nodes:          make(map[int]domain.NodeInfo),
		polls:          make(map[int]int),
		workflows:      make(map[int][]domain.NodeInfo),
	}
}

// addPipeline регистрирует pipeline с узлами titles.
func (p *fakePlatform) addPipeline(id int, name string, titles ...string) {
	p.pipelines = append(p.pipelines, domain.Pipeline{ID: id, Name: name})
	p.workflowTitles[id] = titles
}

// setStatus задаёт последовательность статусов для узлов с title.
func (p *fakePlatform) setStatus(title string, seq ...domain.NodeStatus) {
	p.statuses[title] = seq
}

func (p *fakePlatform) newNode(title, plugin string, previous int) domain.NodeInfo {
	p.nextID++
	node := domain.NodeInfo{
		ID:         p.nextID,
		Title:      title,
		Status:     domain.NodeStatusCreated,
		PluginName: plugin,
		PreviousID: previous,
	}
	p.nodes[node.ID] = node
	return node
}

func (p *fakePlatform) ListPipelines(_ context.Context, name string) ([]domain.Pipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []domain.Pipeline
	for _, pl := range p.pipelines {
		if strings.Contains(strings.ToLower(pl.Name), strings.ToLower(name)) {
			out = append(out, pl)
		}
	}
	return out, nil
}

func (p *fakePlatform) PipelineDefaults(_ context.Context, pipelineID int) ([]domain.PipingDefaults, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []domain.PipingDefaults
	for i, title := range p.workflowTitles[pipelineID] {
		out = append(out, domain.PipingDefaults{PipingID: i + 1, Title: title, ComputeResource: "host"})
	}
	return out, nil
}

func (p *fakePlatform) CreateWorkflow(_ context.Context, pipelineID, previousID int, nodes []domain.PipingDefaults) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scheduled = append(p.scheduled, scheduleCall{PipelineID: pipelineID, PreviousID: previousID})
	p.nextID++
	workflowID := p.nextID

	parent := previousID
	var created []domain.NodeInfo
	for _, n := range nodes {
		node := p.newNode(n.Title, "pl-node", parent)
		parent = node.ID
		created = append(created, node)
	}
	p.workflows[workflowID] = created
	return workflowID, nil
}

func (p *fakePlatform) WorkflowNodes(_ context.Context, workflowID int) ([]domain.NodeInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	nodes, ok := p.workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("workflow %d: %w", workflowID, domain.ErrNotFound)
	}
	return nodes, nil
}

func (p *fakePlatform) Node(_ context.Context, nodeID int) (domain.NodeInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if errs := p.nodeErrors[nodeID]; len(errs) > 0 {
		p.nodeErrors[nodeID] = errs[1:]
		p.polls[nodeID]++
		if errs[0] != nil {
			return domain.NodeInfo{}, errs[0]
		}
	} else {
		p.polls[nodeID]++
	}

	node, ok := p.nodes[nodeID]
	if !ok {
		return domain.NodeInfo{}, fmt.Errorf("node %d: %w", nodeID, domain.ErrNotFound)
	}

	if seq := p.statuses[node.Title]; len(seq) > 0 {
		i := p.polls[nodeID] - 1
		if i >= len(seq) {
			i = len(seq) - 1
		}
		node.Status = seq[i]
	}
	return node, nil
}

func (p *fakePlatform) CreateJoinNode(_ context.Context, pluginID int, req domain.JoinRequest) (domain.NodeInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.joined = append(p.joined, req)
	return p.newNode(req.Title, DefaultJoinPlugin, req.PreviousID), nil
}

func (p *fakePlatform) ListPlugins(_ context.Context, name string) ([]domain.Plugin, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []domain.Plugin
	for _, pl := range p.plugins {
		if strings.Contains(pl.Name, name) {
			out = append(out, pl)
		}
	}
	return out, nil
}

// pollsOf возвращает количество опросов узла.
func (p *fakePlatform) pollsOf(nodeID int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls[nodeID]
}

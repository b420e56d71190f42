package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// Scheduler планирует pipelines как workflow и ведёт History.
type Scheduler struct {
	platform Platform
	history  *domain.History
	logger   *slog.Logger
}

// NewScheduler создаёт Scheduler, который пишет в history.
func NewScheduler(platform Platform, history *domain.History, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		platform: platform,
		history:  history,
		logger:   logger,
	}
}

// Schedule создаёт workflow pipeline name от узла parentID и возвращает его узлы.
//
// Шаги:
//  1. Поиск pipeline по имени
//  2. Получение параметров узлов по умолчанию
//  3. Создание workflow с previous = parentID
//  4. Получение plugin instances workflow
//  5. Запись в History
func (s *Scheduler) Schedule(ctx context.Context, name string, parentID int) ([]domain.NodeInfo, error) {
	// 1. Pipeline
	pipeline, err := s.lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	// 2. Параметры по умолчанию
	defaults, err := s.platform.PipelineDefaults(ctx, pipeline.ID)
	if err != nil {
		return nil, fmt.Errorf("pipeline %d defaults: %w", pipeline.ID, err)
	}

	// 3. Workflow
	workflowID, err := s.platform.CreateWorkflow(ctx, pipeline.ID, parentID, defaults)
	if err != nil {
		return nil, fmt.Errorf("create workflow for pipeline %d: %w", pipeline.ID, err)
	}

	// 4. Узлы workflow
	nodes, err := s.platform.WorkflowNodes(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("workflow %d nodes: %w", workflowID, err)
	}

	// 5. История
	s.history.Append(domain.HistoryEntry{
		Name:       name,
		Pipeline:   pipeline,
		ParentID:   parentID,
		WorkflowID: workflowID,
		Nodes:      nodes,
	})

	s.logger.Info("workflow scheduled",
		"pipeline", pipeline.Name,
		"pipeline_id", pipeline.ID,
		"workflow_id", workflowID,
		"parent_id", parentID,
		"nodes", len(nodes),
	)

	return nodes, nil
}

// lookup находит первый pipeline, имя которого содержит name.
func (s *Scheduler) lookup(ctx context.Context, name string) (domain.Pipeline, error) {
	pipelines, err := s.platform.ListPipelines(ctx, name)
	if err != nil {
		return domain.Pipeline{}, fmt.Errorf("list pipelines: %w", err)
	}

	for _, p := range pipelines {
		if strings.Contains(p.Name, name) {
			return p, nil
		}
	}
	return domain.Pipeline{}, fmt.Errorf("%w: %q", ErrPipelineNotFound, name)
}

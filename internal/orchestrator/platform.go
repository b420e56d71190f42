package orchestrator

import (
	"context"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// Platform — операции удалённой платформы, которые использует оркестратор.
//
// Реализация: cube.Client. Ошибки транспорта должны оборачивать
// domain.ErrRemoteUnavailable.
type Platform interface {
	// ListPipelines возвращает pipelines, имя которых содержит name.
	ListPipelines(ctx context.Context, name string) ([]domain.Pipeline, error)

	// PipelineDefaults возвращает конфигурацию узлов pipeline по умолчанию.
	PipelineDefaults(ctx context.Context, pipelineID int) ([]domain.PipingDefaults, error)

	// CreateWorkflow создаёт workflow от previousID и возвращает его ID.
	CreateWorkflow(ctx context.Context, pipelineID, previousID int, nodes []domain.PipingDefaults) (int, error)

	// WorkflowNodes возвращает plugin instances workflow.
	WorkflowNodes(ctx context.Context, workflowID int) ([]domain.NodeInfo, error)

	// Node возвращает текущий снимок узла.
	Node(ctx context.Context, nodeID int) (domain.NodeInfo, error)

	// CreateJoinNode создаёт join узел плагином pluginID.
	CreateJoinNode(ctx context.Context, pluginID int, req domain.JoinRequest) (domain.NodeInfo, error)

	// ListPlugins возвращает плагины, имя которых содержит name.
	ListPlugins(ctx context.Context, name string) ([]domain.Plugin, error)
}

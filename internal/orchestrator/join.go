package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// DefaultJoinPlugin — плагин, которым создаются join узлы.
const DefaultJoinPlugin = "pl-topologicalcopy"

// Joiner создаёт topological join узлы и ведёт JoinRegistry.
type Joiner struct {
	platform Platform
	pluginID int
	joins    *domain.JoinRegistry
	waiter   *Waiter
	logger   *slog.Logger
}

// NewJoiner создаёт Joiner для join плагина pluginID.
func NewJoiner(platform Platform, pluginID int, joins *domain.JoinRegistry, waiter *Waiter, logger *slog.Logger) *Joiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Joiner{
		platform: platform,
		pluginID: pluginID,
		joins:    joins,
		waiter:   waiter,
		logger:   logger,
	}
}

// Join создаёт один join узел, объединяющий ids.
//
// Родителем join узла объявляется ids[0]; все ids передаются как входы.
func (j *Joiner) Join(ctx context.Context, title string, ids []int, filter string) (domain.NodeInfo, error) {
	if len(ids) == 0 {
		return domain.NodeInfo{}, ErrEmptyJoin
	}

	req := domain.JoinRequest{
		Title:      title,
		Filter:     filter,
		InputIDs:   append([]int(nil), ids...),
		PreviousID: ids[0],
	}

	node, err := j.platform.CreateJoinNode(ctx, j.pluginID, req)
	if err != nil {
		return domain.NodeInfo{}, fmt.Errorf("create join %q: %w", title, err)
	}
	if node.Title == "" {
		node.Title = title
	}

	j.joins.Append(node)

	j.logger.Info("join created",
		"title", title,
		"node_id", node.ID,
		"inputs", ids,
		"filter", filter,
	)

	return node, nil
}

// JoinAndWait создаёт join узел и ждёт завершения именно этого узла.
// Поиск по title здесь не используется: более ранний join с похожим
// title уже завершён.
func (j *Joiner) JoinAndWait(ctx context.Context, title string, ids []int, filter string) (domain.WaitResult, error) {
	node, err := j.Join(ctx, title, ids, filter)
	if err != nil {
		return domain.Skipped(), err
	}
	return j.waiter.WaitNode(ctx, node.ID)
}

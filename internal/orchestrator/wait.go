package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FNNDSC/pl-dylld/internal/domain"
	"github.com/FNNDSC/pl-dylld/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval    = 10 * time.Second
	defaultMaxPolls        = 360
	defaultMaxRemoteErrors = 3
)

// WaitConfig — параметры опроса узла.
type WaitConfig struct {
	// PollInterval — пауза между опросами (default: 10s).
	PollInterval time.Duration

	// MaxPolls — максимальное количество опросов (default: 360).
	MaxPolls int

	// MaxRemoteErrors — сколько ошибок платформы подряд допускается,
	// прежде чем ожидание завершится как unreachable (default: 3).
	MaxRemoteErrors int
}

// withDefaults подставляет значения по умолчанию для нулевых полей.
func (c WaitConfig) withDefaults() WaitConfig {
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxPolls == 0 {
		c.MaxPolls = defaultMaxPolls
	}
	if c.MaxRemoteErrors == 0 {
		c.MaxRemoteErrors = defaultMaxRemoteErrors
	}
	return c
}

// Validate проверяет конфигурацию.
func (c WaitConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.MaxPolls < 1 {
		return fmt.Errorf("%w: max polls must be at least 1", ErrInvalidConfig)
	}
	if c.MaxRemoteErrors < 1 {
		return fmt.Errorf("%w: max remote errors must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Waiter опрашивает узел до финального статуса.
type Waiter struct {
	platform Platform
	cfg      WaitConfig
	history  *domain.History
	joins    *domain.JoinRegistry
	logger   *slog.Logger
}

// NewWaiter создаёт Waiter. Ссылки разрешаются по history и joins.
func NewWaiter(platform Platform, cfg WaitConfig, history *domain.History, joins *domain.JoinRegistry, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiter{
		platform: platform,
		cfg:      cfg.withDefaults(),
		history:  history,
		joins:    joins,
		logger:   logger,
	}
}

// Wait ждёт, пока узел ref достигнет финального статуса.
//
// Неразрешённая ссылка и отрицательный ID возвращаются сразу с
// NodeID = -1 и Finished = false, без ошибки. Узел, которого нет на
// платформе (404), тоже не ошибка: Outcome = unresolved. Finished = true только для finishedSuccessfully;
// finishedWithError и исчерпание лимита опросов дают Finished = false.
//
// Ошибка возвращается только если платформа недоступна
// (MaxRemoteErrors ошибок подряд) или контекст отменён.
func (w *Waiter) Wait(ctx context.Context, ref domain.NodeRef) (domain.WaitResult, error) {
	nodeID, err := Resolve(ref, w.history, w.joins)
	if err != nil {
		w.logger.Warn("wait target not resolved", "ref", ref.String(), "error", err)
		telemetry.WaitOutcomes.WithLabelValues(string(domain.WaitUnresolved)).Inc()
		return domain.Unresolved(), nil
	}
	if n := countMatches(ref, w.history, w.joins); n > 1 {
		w.logger.Debug("ambiguous reference, using first match", "ref", ref.String(), "matches", n, "node_id", nodeID)
	}

	return w.WaitNode(ctx, nodeID)
}

// WaitNode ждёт узел с известным ID. Отрицательный ID — неразрешённый
// узел: результат возвращается сразу, платформа не опрашивается.
func (w *Waiter) WaitNode(ctx context.Context, nodeID int) (domain.WaitResult, error) {
	if nodeID < 0 {
		w.logger.Warn("wait target has no node", "node_id", nodeID)
		telemetry.WaitOutcomes.WithLabelValues(string(domain.WaitUnresolved)).Inc()
		return domain.Unresolved(), nil
	}

	res, err := w.poll(ctx, nodeID)
	telemetry.WaitOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	return res, err
}

// poll выполняет цикл опроса уже разрешённого узла.
func (w *Waiter) poll(ctx context.Context, nodeID int) (domain.WaitResult, error) {
	logger := telemetry.WithNodeID(w.logger, nodeID)
	res := domain.WaitResult{
		NodeID: nodeID,
		Status: domain.NodeStatusUnknown,
	}

	remoteErrors := 0
	for {
		node, err := w.platform.Node(ctx, nodeID)
		res.PollCount++
		telemetry.NodePolls.Inc()

		switch {
		case err != nil && ctx.Err() != nil:
			res.Outcome = domain.WaitCancelled
			return res, ctx.Err()

		case errors.Is(err, domain.ErrNotFound):
			// Узла нет на платформе: ветка не растёт дальше, но платформа доступна.
			res.Outcome = domain.WaitUnresolved
			logger.Warn("node not found", "poll", res.PollCount, "error", err)
			return res, nil

		case err != nil:
			remoteErrors++
			logger.Warn("node poll failed", "poll", res.PollCount, "consecutive_errors", remoteErrors, "error", err)
			if remoteErrors >= w.cfg.MaxRemoteErrors {
				res.Outcome = domain.WaitUnreachable
				if !errors.Is(err, domain.ErrRemoteUnavailable) {
					err = fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
				}
				return res, fmt.Errorf("poll node %d: %w", nodeID, err)
			}

		default:
			remoteErrors = 0
			res.Node = node
			res.Status = node.Status

			if node.Status.IsTerminal() {
				res.Finished = node.Status.Succeeded()
				res.Outcome = domain.WaitFailed
				if res.Finished {
					res.Outcome = domain.WaitSucceeded
				}
				logger.Info("node reached terminal status", "status", node.Status, "polls", res.PollCount)
				return res, nil
			}
			if node.Status.IsCancelled() {
				res.Outcome = domain.WaitFailed
				logger.Info("node cancelled", "polls", res.PollCount)
				return res, nil
			}
			logger.Debug("node not finished", "status", node.Status, "poll", res.PollCount)
		}

		if res.PollCount >= w.cfg.MaxPolls {
			res.Outcome = domain.WaitExhausted
			logger.Warn("node wait exhausted", "status", res.Status, "max_polls", w.cfg.MaxPolls, "error", ErrPollExhausted)
			return res, nil
		}

		if err := sleep(ctx, w.cfg.PollInterval); err != nil {
			res.Outcome = domain.WaitCancelled
			return res, err
		}
	}
}

// sleep ждёт d или отмены ctx.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

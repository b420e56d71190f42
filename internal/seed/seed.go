package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

const (
	// DefaultPlugin — плагин seed узла.
	DefaultPlugin = "pl-shexec"

	// copyExec — команда pfdorun: копирует отфильтрованный файл в выход узла.
	copyExec = "cp %inputWorkingDir/%inputWorkingFile %outputWorkingDir/%inputWorkingFile"

	// maxAttempts — первая посадка и одна повторная.
	maxAttempts = 2
)

var (
	// ErrPluginNotFound — плагин seed узла не зарегистрирован.
	ErrPluginNotFound = errors.New("seed plugin not found")

	// ErrNoParent — не задан родительский plugin instance.
	ErrNoParent = errors.New("parent plugin instance is not set")
)

// Platform — операции платформы, нужные для посадки.
type Platform interface {
	ListPlugins(ctx context.Context, name string) ([]domain.Plugin, error)
	CreatePluginInstance(ctx context.Context, pluginID int, req domain.PluginInstanceRequest) (domain.NodeInfo, error)
}

// Config — параметры посадки.
type Config struct {
	// Plugin — имя плагина (default: pl-shexec).
	Plugin string

	// ParentID — plugin instance, от которого растут все ветки.
	ParentID int
}

// Planter создаёт seed узлы. Безопасен для конкурентного использования.
type Planter struct {
	platform Platform
	pluginID int
	parentID int
	logger   *slog.Logger
}

// NewPlanter находит плагин и создаёт Planter.
func NewPlanter(ctx context.Context, platform Platform, cfg Config, logger *slog.Logger) (*Planter, error) {
	if cfg.ParentID <= 0 {
		return nil, ErrNoParent
	}
	if cfg.Plugin == "" {
		cfg.Plugin = DefaultPlugin
	}
	if logger == nil {
		logger = slog.Default()
	}

	plugins, err := platform.ListPlugins(ctx, cfg.Plugin)
	if err != nil {
		return nil, fmt.Errorf("lookup seed plugin: %w", err)
	}

	var pluginID int
	for _, p := range plugins {
		if p.Name == cfg.Plugin {
			pluginID = p.ID
			break
		}
	}
	if pluginID == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, cfg.Plugin)
	}

	return &Planter{
		platform: platform,
		pluginID: pluginID,
		parentID: cfg.ParentID,
		logger:   logger.With("component", "seed"),
	}, nil
}

// ParentID возвращает родительский plugin instance.
func (p *Planter) ParentID() int {
	return p.parentID
}

// Request возвращает запрос на создание seed узла для input.
func (p *Planter) Request(input string) domain.PluginInstanceRequest {
	name := filepath.Base(input)
	return domain.PluginInstanceRequest{
		PreviousID: p.parentID,
		Title:      name,
		Params: map[string]any{
			"fileFilter":   name,
			"exec":         copyExec,
			"noJobLogging": true,
			"verbose":      "5",
		},
	}
}

// Plant создаёт seed узел для input. Ошибка не возвращается:
// неудача отражается в SeedResult.Status и SeedResult.Failed.
func (p *Planter) Plant(ctx context.Context, input string) domain.SeedResult {
	result := domain.SeedResult{
		Input:            input,
		BranchInstanceID: domain.UnresolvedNodeID,
		Message:          "unable to plant seed",
	}
	req := p.Request(input)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		node, err := p.platform.CreatePluginInstance(ctx, p.pluginID, req)
		if err == nil {
			result.Status = true
			result.BranchInstanceID = node.ID
			result.Message = fmt.Sprintf("seed planted as node %d", node.ID)
			p.logger.Info("seed planted", "input", input, "node_id", node.ID, "attempt", attempt)
			return result
		}

		result.Failed = append(result.Failed, err.Error())
		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			p.logger.Warn("seed planting failed, replanting", "input", input, "error", err)
		}
	}

	p.logger.Error("seed planting failed", "input", input, "attempts", result.Attempts)
	return result
}

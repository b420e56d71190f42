package forest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FNNDSC/pl-dylld/internal/domain"
	"github.com/FNNDSC/pl-dylld/internal/inputs"
	"github.com/FNNDSC/pl-dylld/internal/orchestrator"
	"github.com/FNNDSC/pl-dylld/internal/recipe"
	"github.com/FNNDSC/pl-dylld/internal/seed"
	"github.com/FNNDSC/pl-dylld/internal/telemetry"
)

// LogFile — имя журнала леса.
const LogFile = "treeLog.json"

// finishNotifyTimeout ограничивает отправку branch.finished после отмены ctx.
const finishNotifyTimeout = 5 * time.Second

// ErrInvalidConfig — неверная конфигурация Grower.
var ErrInvalidConfig = errors.New("invalid forest config")

// Platform — всё, что ветка делает на платформе.
type Platform interface {
	orchestrator.Platform
	seed.Platform
}

// Notifier получает события жизненного цикла веток.
type Notifier interface {
	BranchStarted(ctx context.Context, event domain.BranchEvent) error
	BranchFinished(ctx context.Context, event domain.BranchEvent) error
}

// Config — конфигурация Grower.
type Config struct {
	Platform Platform

	// Recipe — этапы дерева.
	Recipe *recipe.Recipe

	// Wait — параметры опроса (рецепт с учётом флагов).
	Wait orchestrator.WaitConfig

	// Seed — параметры посадки.
	Seed seed.Config

	// OutputDir — сюда пишутся heartbeat файлы и журнал.
	OutputDir string

	// Workers — одновременно растущих веток (default: 1).
	Workers int

	// Notifier — опционально.
	Notifier Notifier

	Logger *slog.Logger
}

// Grower растит ветки.
type Grower struct {
	platform     orchestrator.Platform
	recipe       *recipe.Recipe
	wait         orchestrator.WaitConfig
	planter      *seed.Planter
	joinPluginID int
	outputDir    string
	workers      int
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
}

// New проверяет конфигурацию, находит плагины и создаёт Grower.
func New(ctx context.Context, cfg Config) (*Grower, error) {
	if cfg.Platform == nil {
		return nil, fmt.Errorf("%w: platform is required", ErrInvalidConfig)
	}
	if cfg.Recipe == nil {
		return nil, fmt.Errorf("%w: recipe is required", ErrInvalidConfig)
	}
	if err := cfg.Recipe.Validate(); err != nil {
		return nil, err
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("%w: output dir is required", ErrInvalidConfig)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	joinPlugin := cfg.Recipe.JoinPlugin
	if joinPlugin == "" {
		joinPlugin = orchestrator.DefaultJoinPlugin
	}
	joinPluginID, err := orchestrator.LookupPlugin(ctx, cfg.Platform, joinPlugin)
	if err != nil {
		return nil, err
	}

	planter, err := seed.NewPlanter(ctx, cfg.Platform, cfg.Seed, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Grower{
		platform:     cfg.Platform,
		recipe:       cfg.Recipe,
		wait:         cfg.Wait,
		planter:      planter,
		joinPluginID: joinPluginID,
		outputDir:    cfg.OutputDir,
		workers:      cfg.Workers,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger.With("component", "forest"),
		now:          time.Now,
	}, nil
}

// Grow растит по ветке на каждую пару. Записи возвращаются в порядке
// pairs. Ошибка — только отмена ctx; записи при этом возвращаются
// для веток, которые успели начаться.
func (g *Grower) Grow(ctx context.Context, pairs []inputs.Pair) ([]domain.TreeRecord, error) {
	records := make([]domain.TreeRecord, len(pairs))
	started := make([]bool, len(pairs))

	g.logger.Info("starting growth cycle", "branches", len(pairs), "workers", g.workers)

	var eg errgroup.Group
	eg.SetLimit(g.workers)

	for i, pair := range pairs {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			started[i] = true
			records[i] = g.Branch(ctx, pair)
			return nil
		})
	}
	_ = eg.Wait()

	grown := records[:0]
	for i, ok := range started {
		if ok {
			grown = append(grown, records[i])
		}
	}

	g.logger.Info("ending growth cycle", "branches", len(grown))
	return grown, ctx.Err()
}

// Branch растит одну ветку.
func (g *Grower) Branch(ctx context.Context, pair inputs.Pair) domain.TreeRecord {
	branchID := uuid.NewString()
	logger := telemetry.WithBranchID(g.logger, branchID)
	ctx = telemetry.WithLogger(ctx, logger)

	telemetry.BranchesInFlight.Inc()
	defer telemetry.BranchesInFlight.Dec()

	record := domain.TreeRecord{
		Branch:    branchID,
		StartedAt: g.now(),
		Tree: domain.TreeResult{
			Message: "unable to grow tree",
			Result:  domain.Skipped(),
		},
	}

	hb, err := openHeartbeat(g.outputDir, branchID, record.StartedAt)
	if err != nil {
		logger.Warn("heartbeat unavailable", "error", err)
	}

	g.notify(ctx, logger, domain.BranchEvent{
		Branch: branchID,
		Input:  pair.Input,
		Status: domain.BranchStarted,
		Time:   record.StartedAt,
	})

	logger.Info("planting seed", "input", pair.Input)
	record.Seed = g.planter.Plant(ctx, pair.Input)
	if record.Seed.Status {
		record.Tree = g.grow(ctx, logger, branchID, pair, record.Seed.BranchInstanceID)
	}

	record.FinishedAt = g.now()
	if hb != nil {
		if err := hb.finish(record.FinishedAt); err != nil {
			logger.Warn("heartbeat close failed", "error", err)
		}
	}

	status := domain.BranchFailed
	if record.Seed.Status && record.Tree.Status {
		status = domain.BranchSucceeded
	}
	telemetry.Branches.WithLabelValues(string(status)).Inc()

	g.notify(ctx, logger, domain.BranchEvent{
		Branch:  branchID,
		Input:   pair.Input,
		Status:  status,
		SeedID:  max(record.Seed.BranchInstanceID, 0),
		NodeID:  max(record.Tree.Result.NodeID, 0),
		Outcome: record.Tree.Result.Outcome,
		Error:   record.Tree.Error,
		Time:    record.FinishedAt,
	})

	logger.Info("branch finished",
		"status", status,
		"duration", record.FinishedAt.Sub(record.StartedAt),
	)
	return record
}

// grow строит дерево от seed узла root.
func (g *Grower) grow(ctx context.Context, logger *slog.Logger, branchID string, pair inputs.Pair, root int) domain.TreeResult {
	tree := domain.TreeResult{Message: "unable to grow tree", Result: domain.Skipped()}

	stages, err := g.recipe.Render(recipe.Vars{Seed: filepath.Base(pair.Input), Branch: branchID})
	if err != nil {
		tree.Error = err.Error()
		return tree
	}

	flow, err := orchestrator.New(ctx, orchestrator.Config{
		Platform:     g.platform,
		Stages:       stages,
		Wait:         g.wait,
		JoinPluginID: g.joinPluginID,
		Logger:       logger,
	})
	if err != nil {
		tree.Error = err.Error()
		return tree
	}

	res, err := flow.Run(ctx, root)
	tree.Result = res
	tree.History = flow.History()
	tree.Joins = flow.Joins()

	switch {
	case err != nil:
		tree.Error = err.Error()
		tree.Message = "tree growth interrupted"
		logger.Error("tree growth failed", "root_id", root, "error", err)
	case res.Finished:
		tree.Status = true
		tree.Message = fmt.Sprintf("tree grown to node %d", res.NodeID)
	default:
		tree.Message = fmt.Sprintf("tree stopped at node %d: %s", res.NodeID, res.Outcome)
	}
	return tree
}

func (g *Grower) notify(ctx context.Context, logger *slog.Logger, event domain.BranchEvent) {
	if g.notifier == nil {
		return
	}

	var err error
	if event.Status == domain.BranchStarted {
		err = g.notifier.BranchStarted(ctx, event)
	} else {
		// Завершение ветки публикуется и после SIGINT.
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishNotifyTimeout)
		err = g.notifier.BranchFinished(finishCtx, event)
		cancel()
	}
	if err != nil {
		logger.Warn("failed to publish branch event", "status", event.Status, "error", err)
	}
}

// heartbeat — файл с временем начала и конца ветки.
type heartbeat struct {
	f *os.File
}

func openHeartbeat(dir, branchID string, start time.Time) (*heartbeat, error) {
	f, err := os.Create(filepath.Join(dir, "heartbeat-"+branchID+".log"))
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "Start time: %s\n", start.Format(time.RFC3339Nano)); err != nil {
		f.Close()
		return nil, err
	}
	return &heartbeat{f: f}, nil
}

func (h *heartbeat) finish(end time.Time) error {
	if _, err := fmt.Fprintf(h.f, "End   time: %s\n", end.Format(time.RFC3339Nano)); err != nil {
		h.f.Close()
		return err
	}
	return h.f.Close()
}

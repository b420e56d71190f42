package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FNNDSC/pl-dylld/internal/domain"
	"github.com/FNNDSC/pl-dylld/internal/telemetry"
)

// JoinSpec — описание join после этапа.
type JoinSpec struct {
	// Title — имя join узла.
	Title string

	// Filter — фильтр файлов для каждого входа.
	Filter string

	// With — дополнительные входы join (после anchor и цели этапа).
	With []domain.NodeRef
}

// Stage — один этап рецепта.
type Stage struct {
	// Name — имя этапа для логов и метрик. По умолчанию — Pipeline.
	Name string

	// Pipeline — имя (подстрока) pipeline, который планируется.
	Pipeline string

	// WaitFor — подстрока title узла workflow, завершения которого ждём.
	WaitFor string

	// Join — join после этапа; nil — следующий этап присоединяется к WaitFor узлу.
	Join *JoinSpec
}

// label возвращает имя этапа для логов.
func (s Stage) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Pipeline
}

// Validate проверяет этап.
func (s Stage) Validate() error {
	if strings.TrimSpace(s.Pipeline) == "" {
		return fmt.Errorf("%w: stage %q: pipeline is required", ErrInvalidConfig, s.Name)
	}
	if strings.TrimSpace(s.WaitFor) == "" {
		return fmt.Errorf("%w: stage %q: wait target is required", ErrInvalidConfig, s.label())
	}
	if s.Join != nil && strings.TrimSpace(s.Join.Title) == "" {
		return fmt.Errorf("%w: stage %q: join title is required", ErrInvalidConfig, s.label())
	}
	return nil
}

// Flow ведёт одну ветку через упорядоченный список этапов.
//
// Flow — это "мозг" ветки:
//   - Планирует workflow этапа от текущей точки присоединения
//   - Ждёт целевой узел этапа
//   - Объединяет ветки join узлом и ждёт его
//   - Переходит к следующему этапу только после успешного предыдущего
type Flow struct {
	platform Platform
	stages   []Stage

	state *BranchState

	scheduler *Scheduler
	waiter    *Waiter
	joiner    *Joiner

	joinPluginID int
	waitCfg      WaitConfig

	logger *slog.Logger
}

// Config — конфигурация Flow.
type Config struct {
	// Platform — клиент удалённой платформы.
	Platform Platform

	// Stages — этапы в порядке выполнения.
	Stages []Stage

	// Wait — параметры опроса узлов.
	Wait WaitConfig

	// JoinPlugin — имя плагина join узлов (default: pl-topologicalcopy).
	JoinPlugin string

	// JoinPluginID — уже известный ID join плагина; если > 0,
	// поиск по JoinPlugin не выполняется.
	JoinPluginID int

	// Logger
	Logger *slog.Logger
}

// Validate проверяет конфигурацию.
func (c Config) Validate() error {
	if c.Platform == nil {
		return fmt.Errorf("%w: platform is required", ErrInvalidConfig)
	}
	if len(c.Stages) == 0 {
		return ErrNoStages
	}
	for _, stage := range c.Stages {
		if err := stage.Validate(); err != nil {
			return err
		}
	}
	return c.Wait.withDefaults().Validate()
}

// New создаёт Flow и находит на платформе join плагин.
func New(ctx context.Context, cfg Config) (*Flow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	joinPlugin := cfg.JoinPlugin
	if joinPlugin == "" {
		joinPlugin = DefaultJoinPlugin
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pluginID := cfg.JoinPluginID
	if pluginID <= 0 {
		id, err := LookupPlugin(ctx, cfg.Platform, joinPlugin)
		if err != nil {
			return nil, err
		}
		pluginID = id
	}

	return &Flow{
		platform:     cfg.Platform,
		stages:       append([]Stage(nil), cfg.Stages...),
		joinPluginID: pluginID,
		waitCfg:      cfg.Wait.withDefaults(),
		logger:       logger,
	}, nil
}

// LookupPlugin находит ID плагина: точное совпадение имени, иначе первый результат.
func LookupPlugin(ctx context.Context, platform Platform, name string) (int, error) {
	plugins, err := platform.ListPlugins(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("list plugins: %w", err)
	}
	for _, p := range plugins {
		if p.Name == name {
			return p.ID, nil
		}
	}
	if len(plugins) > 0 {
		return plugins[0].ID, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrJoinPluginNotFound, name)
}

// JoinPluginID возвращает ID join плагина.
func (f *Flow) JoinPluginID() int {
	return f.joinPluginID
}

// reset создаёт новое состояние ветки от root.
func (f *Flow) reset(root int) {
	f.state = NewBranchState(root)
	f.scheduler = NewScheduler(f.platform, f.state.History, f.logger)
	f.waiter = NewWaiter(f.platform, f.waitCfg, f.state.History, f.state.Joins, f.logger)
	f.joiner = NewJoiner(f.platform, f.joinPluginID, f.state.Joins, f.waiter, f.logger)
}

// Run выполняет все этапы от узла root и возвращает результат последнего этапа.
//
// Этап выполняется, только если предыдущий завершился успешно (первый —
// безусловно). Если предыдущий этап не завершился, Run возвращает его
// результат (Finished = false) и nil: вызывающий обязан проверять Finished.
// Ошибка возвращается для отсутствующего pipeline, недоступной платформы
// и отмены контекста.
func (f *Flow) Run(ctx context.Context, root int) (domain.WaitResult, error) {
	f.reset(root)

	f.logger.Info("flow started", "root_id", root, "stages", len(f.stages))

	var prev *domain.WaitResult
	for i, stage := range f.stages {
		if !parentFinished(prev) {
			f.logger.Warn("prerequisite not finished, skipping remaining stages",
				"stage", stage.label(),
				"skipped", len(f.stages)-i,
				"outcome", prev.Outcome,
			)
			telemetry.Stages.WithLabelValues(stage.label(), string(domain.WaitSkipped)).Inc()
			return *prev, nil
		}

		res, err := f.runStage(ctx, stage)
		if err != nil {
			return res, fmt.Errorf("stage %q: %w", stage.label(), err)
		}
		prev = &res
	}

	f.logger.Info("flow finished",
		"root_id", root,
		"finished", prev.Finished,
		"status", prev.Status,
		"node_id", prev.NodeID,
	)

	return *prev, nil
}

// parentFinished — отсутствующий родитель считается завершённым.
func parentFinished(prev *domain.WaitResult) bool {
	return prev == nil || prev.Finished
}

// runStage выполняет один этап: schedule → wait → (join → wait).
func (f *Flow) runStage(ctx context.Context, stage Stage) (res domain.WaitResult, err error) {
	label := stage.label()
	logger := telemetry.WithStage(f.logger, label)
	start := time.Now()

	defer func() {
		telemetry.StageDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		result := string(res.Outcome)
		if err != nil && !errors.Is(err, context.Canceled) {
			result = "error"
		}
		telemetry.Stages.WithLabelValues(label, result).Inc()
	}()

	// 1. Планируем workflow
	nodes, err := f.scheduler.Schedule(ctx, stage.Pipeline, f.state.Attach())
	if err != nil {
		return domain.Skipped(), err
	}

	// 2. Ждём целевой узел. Цель ищется только среди узлов этого workflow:
	// в истории могут быть более ранние workflow того же pipeline.
	target, ok := findTitle(nodes, stage.WaitFor)
	if !ok {
		logger.Warn("stage target not in workflow", "target", stage.WaitFor, "nodes", len(nodes))
	}
	res, err = f.waiter.WaitNode(ctx, target)
	if err != nil || !res.Finished {
		logger.Info("stage target not finished", "target", stage.WaitFor, "outcome", res.Outcome)
		return res, err
	}

	if stage.Join == nil {
		f.state.Advance(label, res.NodeID)
		return res, nil
	}

	// 3. Объединяем anchor, цель этапа и дополнительные входы
	ids := []int{f.state.Anchor(), res.NodeID}
	for _, ref := range stage.Join.With {
		id, rerr := Resolve(ref, f.state.History, f.state.Joins)
		if rerr != nil {
			logger.Warn("join input not resolved", "ref", ref.String(), "error", rerr)
			return domain.Unresolved(), nil
		}
		ids = append(ids, id)
	}

	// 4. Ждём join
	res, err = f.joiner.JoinAndWait(ctx, stage.Join.Title, ids, stage.Join.Filter)
	if err != nil || !res.Finished {
		logger.Info("stage join not finished", "join", stage.Join.Title, "outcome", res.Outcome)
		return res, err
	}

	f.state.Advance(label, res.NodeID)
	return res, nil
}

// Schedule планирует pipeline вне рецепта (для ручного построения дерева).
func (f *Flow) Schedule(ctx context.Context, name string, parent domain.NodeRef) ([]domain.NodeInfo, error) {
	f.ensureState(parent)
	parentID, err := Resolve(parent, f.state.History, f.state.Joins)
	if err != nil {
		return nil, err
	}
	return f.scheduler.Schedule(ctx, name, parentID)
}

// Wait ждёт узел ref по истории текущей ветки.
func (f *Flow) Wait(ctx context.Context, ref domain.NodeRef) (domain.WaitResult, error) {
	f.ensureState(ref)
	return f.waiter.Wait(ctx, ref)
}

// Join объединяет узлы refs join узлом title.
func (f *Flow) Join(ctx context.Context, title string, refs []domain.NodeRef, filter string) (domain.NodeInfo, error) {
	if len(refs) == 0 {
		return domain.NodeInfo{}, ErrEmptyJoin
	}
	f.ensureState(refs[0])
	ids := make([]int, 0, len(refs))
	for _, ref := range refs {
		id, err := Resolve(ref, f.state.History, f.state.Joins)
		if err != nil {
			return domain.NodeInfo{}, err
		}
		ids = append(ids, id)
	}
	return f.joiner.Join(ctx, title, ids, filter)
}

// ensureState создаёт состояние ветки при ручном использовании без Run.
func (f *Flow) ensureState(ref domain.NodeRef) {
	if f.state != nil {
		return
	}
	root := domain.UnresolvedNodeID
	if ref.IsConcrete() {
		root = ref.ID()
	}
	f.reset(root)
}

// History возвращает историю текущей ветки (nil до первого Run).
func (f *Flow) History() *domain.History {
	if f.state == nil {
		return nil
	}
	return f.state.History
}

// Joins возвращает реестр join узлов текущей ветки (nil до первого Run).
func (f *Flow) Joins() *domain.JoinRegistry {
	if f.state == nil {
		return nil
	}
	return f.state.Joins
}

// State возвращает состояние текущей ветки.
func (f *Flow) State() *BranchState {
	return f.state
}

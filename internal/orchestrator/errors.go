package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrPipelineNotFound — на платформе нет pipeline с подходящим именем.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrNodeNotFound — ссылка не разрешилась ни в один узел.
	ErrNodeNotFound = errors.New("node not found")

	// ErrPollExhausted — узел не достиг финального статуса за MaxPolls опросов.
	ErrPollExhausted = errors.New("poll budget exhausted")

	// ErrEmptyJoin — join без входных узлов.
	ErrEmptyJoin = errors.New("join requires at least one input node")

	// ErrJoinPluginNotFound — на платформе нет плагина для join узлов.
	ErrJoinPluginNotFound = errors.New("join plugin not found")

	// ErrInvalidConfig — конфигурация не прошла валидацию.
	ErrInvalidConfig = errors.New("invalid orchestrator config")

	// ErrNoStages — рецепт без этапов.
	ErrNoStages = errors.New("no stages configured")
)

// Package config собирает конфигурацию плагина из флагов и окружения.
//
// Приоритет: явно заданный флаг → переменная окружения → значение
// по умолчанию.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/FNNDSC/pl-dylld/internal/inputs"
)

// ParentEnv — переменная, в которой CUBE передаёт ID родительского plugin instance.
const ParentEnv = "CHRIS_PREV_PLG_INST_ID"

var (
	// ErrNoParent — родительский plugin instance не задан и не найден в окружении.
	ErrNoParent = errors.New("parent plugin instance id is not set")

	// ErrInvalid — некорректное значение параметра.
	ErrInvalid = errors.New("invalid config")
)

// envFallbacks — флаг → переменная окружения.
var envFallbacks = map[string]string{
	"CUBEurl":      "CUBE_URL",
	"CUBEuser":     "CUBE_USER",
	"CUBEpassword": "CUBE_PASSWORD",
	"amqp-url":     "RABBITMQ_URL",
	"metrics-addr": "METRICS_ADDR",
}

// Config — параметры запуска.
type Config struct {
	InputDir  string
	OutputDir string

	// Pattern — glob входных файлов.
	Pattern string

	// PluginInstanceID — родительский узел; пустой — из CHRIS_PREV_PLG_INST_ID.
	PluginInstanceID string

	CUBEURL      string
	CUBEUser     string
	CUBEPassword string

	// Thread — ветки параллельно (по числу CPU).
	Thread bool

	// InNode — входы ветвей — листовые директории, а не файлы.
	InNode bool

	Verbosity int

	// Recipe — путь к рецепту; пустой — встроенный LLD рецепт.
	Recipe string

	// PollInterval, MaxPolls — переопределяют настройки рецепта, если > 0.
	PollInterval time.Duration
	MaxPolls     int

	// MaxRequests — одновременных запросов к CUBE.
	MaxRequests int64

	// RequestsPerSecond — частота запросов к CUBE (0 — без ограничения).
	RequestsPerSecond float64

	// SeedPlugin — плагин seed узлов.
	SeedPlugin string

	// MetricsAddr — адрес /metrics и /healthz; пустой — сервер не запускается.
	MetricsAddr string

	// AMQPURL — RabbitMQ для событий веток; пустой — события не публикуются.
	AMQPURL string
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		Pattern:      inputs.DefaultPattern,
		CUBEURL:      "http://localhost:8000/api/v1/",
		CUBEUser:     "chris",
		CUBEPassword: "chris1234",
		MaxRequests:  8,
		SeedPlugin:   "pl-shexec",
	}
}

// BindFlags регистрирует флаги плагина в fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Pattern, "pattern", c.Pattern, "pattern for file names to include (quote it!)")
	fs.StringVar(&c.PluginInstanceID, "pluginInstanceID", c.PluginInstanceID, "plugin instance ID from which to start analysis")
	fs.StringVar(&c.CUBEURL, "CUBEurl", c.CUBEURL, "CUBE URL")
	fs.StringVar(&c.CUBEUser, "CUBEuser", c.CUBEUser, "CUBE/ChRIS username")
	fs.StringVar(&c.CUBEPassword, "CUBEpassword", c.CUBEPassword, "CUBE/ChRIS password")
	fs.BoolVar(&c.Thread, "thread", c.Thread, "use threading to branch in parallel")
	fs.BoolVar(&c.InNode, "inNode", c.InNode, "branch on leaf directories instead of files")
	fs.IntVar(&c.Verbosity, "verbosity", c.Verbosity, "verbosity level of app")
	fs.StringVar(&c.Recipe, "recipe", c.Recipe, "stage recipe file (yaml, toml or json); built-in LLD recipe if empty")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "override the recipe poll interval")
	fs.IntVar(&c.MaxPolls, "max-polls", c.MaxPolls, "override the recipe poll limit")
	fs.Int64Var(&c.MaxRequests, "max-requests", c.MaxRequests, "max concurrent requests to CUBE")
	fs.Float64Var(&c.RequestsPerSecond, "max-rps", c.RequestsPerSecond, "max requests per second to CUBE (0 = unlimited)")
	fs.StringVar(&c.SeedPlugin, "seed-plugin", c.SeedPlugin, "plugin used to plant branch seeds")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve /metrics and /healthz on this address")
	fs.StringVar(&c.AMQPURL, "amqp-url", c.AMQPURL, "RabbitMQ URL for branch events")
}

// ApplyEnv подставляет переменные окружения во флаги, которые не
// заданы явно.
func ApplyEnv(fs *pflag.FlagSet, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	for flag, env := range envFallbacks {
		if fs.Lookup(flag) == nil || fs.Changed(flag) {
			continue
		}
		v := getenv(env)
		if v == "" {
			continue
		}
		if err := fs.Set(flag, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, env, err)
		}
	}
	return nil
}

// Validate проверяет конфигурацию.
func (c *Config) Validate() error {
	if c.InputDir == "" || c.OutputDir == "" {
		return fmt.Errorf("%w: input and output directories are required", ErrInvalid)
	}
	if strings.TrimSpace(c.CUBEURL) == "" {
		return fmt.Errorf("%w: CUBE url is required", ErrInvalid)
	}
	if c.PollInterval < 0 || c.MaxPolls < 0 {
		return fmt.Errorf("%w: poll settings must not be negative", ErrInvalid)
	}
	if c.MaxRequests < 1 {
		return fmt.Errorf("%w: max-requests must be >= 1", ErrInvalid)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: max-rps must not be negative", ErrInvalid)
	}
	return nil
}

// ParentID возвращает родительский plugin instance: из флага или из
// CHRIS_PREV_PLG_INST_ID.
func (c *Config) ParentID(getenv func(string) string) (int, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	raw := strings.TrimSpace(c.PluginInstanceID)
	source := "pluginInstanceID"
	if raw == "" {
		raw = strings.TrimSpace(getenv(ParentEnv))
		source = ParentEnv
	}
	if raw == "" {
		return 0, ErrNoParent
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalid, source, raw)
	}
	return id, nil
}

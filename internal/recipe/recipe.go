package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/FNNDSC/pl-dylld/internal/domain"
	"github.com/FNNDSC/pl-dylld/internal/orchestrator"
)

// Duration — time.Duration, которая читается из строк вида "10s".
type Duration time.Duration

// UnmarshalText парсит длительность.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText сериализует длительность.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Recipe — рецепт роста дерева.
type Recipe struct {
	// Name — имя рецепта.
	Name string `json:"name" yaml:"name" toml:"name"`

	// JoinPlugin — плагин join узлов (default: pl-topologicalcopy).
	JoinPlugin string `json:"join_plugin,omitempty" yaml:"join_plugin,omitempty" toml:"join_plugin"`

	// Wait — параметры опроса узлов.
	Wait Wait `json:"wait" yaml:"wait" toml:"wait"`

	// Stages — этапы в порядке выполнения.
	Stages []Stage `json:"stages" yaml:"stages" toml:"stages"`
}

// Wait — параметры опроса.
type Wait struct {
	PollInterval    Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty" toml:"poll_interval"`
	MaxPolls        int      `json:"max_polls,omitempty" yaml:"max_polls,omitempty" toml:"max_polls"`
	MaxRemoteErrors int      `json:"max_remote_errors,omitempty" yaml:"max_remote_errors,omitempty" toml:"max_remote_errors"`
}

// Stage — этап рецепта.
type Stage struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	Pipeline string `json:"pipeline" yaml:"pipeline" toml:"pipeline"`
	WaitFor  string `json:"wait_for" yaml:"wait_for" toml:"wait_for"`
	Join     *Join  `json:"join,omitempty" yaml:"join,omitempty" toml:"join"`
}

// Join — join после этапа.
type Join struct {
	Title  string `json:"title" yaml:"title" toml:"title"`
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty" toml:"filter"`
	With   []Ref  `json:"with,omitempty" yaml:"with,omitempty" toml:"with"`
}

// Ref — ссылка на узел в рецепте: либо id, либо workflow + node.
type Ref struct {
	ID       int    `json:"id,omitempty" yaml:"id,omitempty" toml:"id"`
	Workflow string `json:"workflow,omitempty" yaml:"workflow,omitempty" toml:"workflow"`
	Node     string `json:"node,omitempty" yaml:"node,omitempty" toml:"node"`
}

// NodeRef переводит Ref в domain.NodeRef.
func (r Ref) NodeRef() domain.NodeRef {
	if r.Workflow == "" && r.Node == "" {
		return domain.Concrete(r.ID)
	}
	return domain.Symbolic(r.Workflow, r.Node)
}

// validate: ссылка задаёт либо положительный id, либо workflow и node вместе.
func (r Ref) validate() error {
	symbolic := strings.TrimSpace(r.Workflow) != "" || strings.TrimSpace(r.Node) != ""
	switch {
	case symbolic && r.ID != 0:
		return fmt.Errorf("ref sets both id %d and workflow/node", r.ID)
	case symbolic && (strings.TrimSpace(r.Workflow) == "" || strings.TrimSpace(r.Node) == ""):
		return fmt.Errorf("ref needs both workflow and node, got workflow=%q node=%q", r.Workflow, r.Node)
	case !symbolic && r.ID <= 0:
		return fmt.Errorf("ref needs a positive id or workflow and node")
	}
	return nil
}

// Vars — переменные для шаблонов title.
type Vars struct {
	// Seed — имя входа ветки (basename файла).
	Seed string

	// Branch — идентификатор ветки.
	Branch string
}

// Load читает рецепт из файла. Формат определяется расширением.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse декодирует рецепт в формате ext (".yaml", ".yml", ".toml", ".json").
func Parse(data []byte, ext string) (*Recipe, error) {
	r := &Recipe{}

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, r); err != nil {
			return nil, fmt.Errorf("parse yaml recipe: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), r); err != nil {
			return nil, fmt.Errorf("parse toml recipe: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, r); err != nil {
			return nil, fmt.Errorf("parse json recipe: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate проверяет рецепт.
func (r *Recipe) Validate() error {
	if len(r.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidRecipe)
	}
	for i, s := range r.Stages {
		if strings.TrimSpace(s.Pipeline) == "" {
			return fmt.Errorf("%w: stage %d: pipeline is required", ErrInvalidRecipe, i)
		}
		if strings.TrimSpace(s.WaitFor) == "" {
			return fmt.Errorf("%w: stage %d: wait_for is required", ErrInvalidRecipe, i)
		}
		if s.Join == nil {
			continue
		}
		if strings.TrimSpace(s.Join.Title) == "" {
			return fmt.Errorf("%w: stage %d: join title is required", ErrInvalidRecipe, i)
		}
		if _, err := template.New("title").Parse(s.Join.Title); err != nil {
			return fmt.Errorf("%w: stage %d: join title: %v", ErrInvalidRecipe, i, err)
		}
		for j, ref := range s.Join.With {
			if err := ref.validate(); err != nil {
				return fmt.Errorf("%w: stage %d: join input %d: %v", ErrInvalidRecipe, i, j, err)
			}
		}
	}
	if r.Wait.PollInterval < 0 || r.Wait.MaxPolls < 0 || r.Wait.MaxRemoteErrors < 0 {
		return fmt.Errorf("%w: wait settings must not be negative", ErrInvalidRecipe)
	}
	return nil
}

// WaitConfig возвращает параметры опроса для оркестратора.
func (r *Recipe) WaitConfig() orchestrator.WaitConfig {
	return orchestrator.WaitConfig{
		PollInterval:    time.Duration(r.Wait.PollInterval),
		MaxPolls:        r.Wait.MaxPolls,
		MaxRemoteErrors: r.Wait.MaxRemoteErrors,
	}
}

// Render возвращает этапы оркестратора с подставленными vars.
func (r *Recipe) Render(vars Vars) ([]orchestrator.Stage, error) {
	stages := make([]orchestrator.Stage, 0, len(r.Stages))
	for _, s := range r.Stages {
		stage := orchestrator.Stage{
			Name:     s.Name,
			Pipeline: s.Pipeline,
			WaitFor:  s.WaitFor,
		}
		if s.Join != nil {
			title, err := render(s.Join.Title, vars)
			if err != nil {
				return nil, fmt.Errorf("stage %q: %w", s.Pipeline, err)
			}
			join := &orchestrator.JoinSpec{Title: title, Filter: s.Join.Filter}
			for _, ref := range s.Join.With {
				join.With = append(join.With, ref.NodeRef())
			}
			stage.Join = join
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// render выполняет шаблон title.
func render(text string, vars Vars) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("title").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

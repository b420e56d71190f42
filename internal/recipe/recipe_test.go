package recipe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/FNNDSC/pl-dylld/internal/domain"
	"github.com/FNNDSC/pl-dylld/internal/orchestrator"
)

const yamlRecipe = `
name: two-stage
join_plugin: pl-topologicalcopy
wait:
  poll_interval: 5s
  max_polls: 12
stages:
  - name: inference
    pipeline: inference
    wait_for: heatmaps
    join:
      title: "{{ .Seed }}-merge"
      filter: '\.dcm$'
      with:
        - workflow: inference
          node: dcm-to-png
        - id: 42
  - pipeline: push
    wait_for: pacs
`

const tomlRecipe = `
name = "two-stage"

[wait]
poll_interval = "5s"
max_polls = 12

[[stages]]
name = "inference"
pipeline = "inference"
wait_for = "heatmaps"

[stages.join]
title = "{{ .Seed }}-merge"
filter = '\.dcm$'

[[stages]]
pipeline = "push"
wait_for = "pacs"
`

const jsonRecipe = `{
  "name": "two-stage",
  "wait": {"poll_interval": "5s", "max_polls": 12},
  "stages": [
    {"name": "inference", "pipeline": "inference", "wait_for": "heatmaps",
     "join": {"title": "{{ .Seed }}-merge", "filter": "\\.dcm$"}},
    {"pipeline": "push", "wait_for": "pacs"}
  ]
}`

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		ext  string
		data string
	}{
		{".yaml", yamlRecipe},
		{".toml", tomlRecipe},
		{".json", jsonRecipe},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			r, err := Parse([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Name != "two-stage" {
				t.Errorf("expected name two-stage, got %q", r.Name)
			}
			if len(r.Stages) != 2 {
				t.Fatalf("expected 2 stages, got %d", len(r.Stages))
			}
			if time.Duration(r.Wait.PollInterval) != 5*time.Second || r.Wait.MaxPolls != 12 {
				t.Errorf("unexpected wait: %+v", r.Wait)
			}
			if r.Stages[0].Join == nil || r.Stages[0].Join.Filter != `\.dcm$` {
				t.Errorf("unexpected join: %+v", r.Stages[0].Join)
			}
			if r.Stages[1].Join != nil {
				t.Error("second stage has no join")
			}
		})
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	if _, err := Parse([]byte("x"), ".ini"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		recipe Recipe
	}{
		{"no stages", Recipe{}},
		{"no pipeline", Recipe{Stages: []Stage{{WaitFor: "x"}}}},
		{"no wait target", Recipe{Stages: []Stage{{Pipeline: "p"}}}},
		{"join without title", Recipe{Stages: []Stage{{Pipeline: "p", WaitFor: "x", Join: &Join{}}}}},
		{"bad template", Recipe{Stages: []Stage{{Pipeline: "p", WaitFor: "x", Join: &Join{Title: "{{ .Seed"}}}}},
		{"negative polls", Recipe{Wait: Wait{MaxPolls: -1}, Stages: []Stage{{Pipeline: "p", WaitFor: "x"}}}},
		{"empty join input", withRefs(Ref{})},
		{"negative join input id", withRefs(Ref{ID: -3})},
		{"workflow without node", withRefs(Ref{Workflow: "inference"})},
		{"node without workflow", withRefs(Ref{Node: "heatmaps"})},
		{"id and workflow", withRefs(Ref{ID: 4, Workflow: "inference", Node: "heatmaps"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.recipe.Validate(); !errors.Is(err, ErrInvalidRecipe) {
				t.Errorf("expected ErrInvalidRecipe, got %v", err)
			}
		})
	}
}

func withRefs(refs ...Ref) Recipe {
	return Recipe{Stages: []Stage{{Pipeline: "p", WaitFor: "x", Join: &Join{Title: "j", With: refs}}}}
}

func TestValidate_JoinInputs(t *testing.T) {
	r := withRefs(Ref{ID: 42}, Ref{Workflow: "inference", Node: "dcm-to-png"}, Ref{Workflow: "topological", Node: "merge"})
	if err := r.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRender(t *testing.T) {
	r, err := Parse([]byte(yamlRecipe), ".yml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	stages, err := r.Render(Vars{Seed: "study-1.dcm", Branch: "b1"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := []orchestrator.Stage{
		{
			Name:     "inference",
			Pipeline: "inference",
			WaitFor:  "heatmaps",
			Join: &orchestrator.JoinSpec{
				Title:  "study-1.dcm-merge",
				Filter: `\.dcm$`,
				With:   []domain.NodeRef{domain.Symbolic("inference", "dcm-to-png"), domain.Concrete(42)},
			},
		},
		{Pipeline: "push", WaitFor: "pacs"},
	}
	if diff := cmp.Diff(want, stages, cmp.AllowUnexported(domain.NodeRef{})); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_UnknownField(t *testing.T) {
	r := &Recipe{Stages: []Stage{{Pipeline: "p", WaitFor: "x", Join: &Join{Title: "{{ .Missing }}"}}}}
	if _, err := r.Render(Vars{}); err == nil {
		t.Fatal("expected template error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	if err := os.WriteFile(path, []byte(yamlRecipe), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := r.WaitConfig()
	if cfg.PollInterval != 5*time.Second || cfg.MaxPolls != 12 {
		t.Errorf("unexpected wait config: %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	r := Default()
	if err := r.Validate(); err != nil {
		t.Fatalf("default recipe invalid: %v", err)
	}

	stages, err := r.Render(Vars{Seed: "xray.dcm"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(stages) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(stages))
	}
	if stages[0].Join.Title != "xray.dcm-dcm-heatmaps" {
		t.Errorf("unexpected title %q", stages[0].Join.Title)
	}
	if stages[3].Join != nil {
		t.Error("last stage has no join")
	}
}

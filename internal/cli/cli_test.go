package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/FNNDSC/pl-dylld/internal/domain"
	"github.com/FNNDSC/pl-dylld/internal/mq"
)

type fakeInspector struct {
	pipelines []domain.Pipeline
	plugins   []domain.Plugin
	nodes     map[int]domain.NodeInfo
	workflows map[int][]domain.NodeInfo
}

func (f *fakeInspector) ListPipelines(_ context.Context, name string) ([]domain.Pipeline, error) {
	var out []domain.Pipeline
	for _, p := range f.pipelines {
		if strings.Contains(p.Name, name) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeInspector) ListPlugins(_ context.Context, name string) ([]domain.Plugin, error) {
	return f.plugins, nil
}

func (f *fakeInspector) Node(_ context.Context, id int) (domain.NodeInfo, error) {
	n, ok := f.nodes[id]
	if !ok {
		return domain.NodeInfo{}, domain.ErrNotFound
	}
	return n, nil
}

func (f *fakeInspector) WorkflowNodes(_ context.Context, id int) ([]domain.NodeInfo, error) {
	return f.workflows[id], nil
}

func newInspector() *fakeInspector {
	return &fakeInspector{
		pipelines: []domain.Pipeline{
			{ID: 1, Name: "Leg Length Discrepency inference"},
			{ID: 2, Name: "Leg Length Discrepency measurements"},
			{ID: 3, Name: "PACS push"},
		},
		plugins: []domain.Plugin{{ID: 7, Name: "pl-topologicalcopy", Version: "1.0.4"}},
		nodes: map[int]domain.NodeInfo{
			42: {ID: 42, Title: "heatmaps", Status: domain.NodeStatusStarted, PluginName: "pl-lld_inference", PreviousID: 41},
		},
		workflows: map[int][]domain.NodeInfo{
			9: {{ID: 41, Title: "dcm-to-png"}, {ID: 42, Title: "heatmaps"}},
		},
	}
}

// run выполняет команду с args.
func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(context.Background())
}

func fns(insp Inspector, jsonMode bool) (ClientFunc, OutputFunc, *bytes.Buffer) {
	var buf bytes.Buffer
	clientFn := func() (Inspector, error) { return insp, nil }
	outputFn := func() *Output { return NewOutputTo(&buf, &bytes.Buffer{}, jsonMode) }
	return clientFn, outputFn, &buf
}

func TestPipelinesCmd_Table(t *testing.T) {
	clientFn, outputFn, buf := fns(newInspector(), false)

	if err := run(t, NewPipelinesCmd(clientFn, outputFn), "--name", "Leg Length"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ID", "NAME", "Leg Length Discrepency inference", "Leg Length Discrepency measurements"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "PACS push") {
		t.Errorf("filter not applied:\n%s", out)
	}
}

func TestPipelinesCmd_JSON(t *testing.T) {
	clientFn, outputFn, buf := fns(newInspector(), true)

	if err := run(t, NewPipelinesCmd(clientFn, outputFn)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []domain.Pipeline
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if len(got) != 3 {
		t.Errorf("expected 3 pipelines, got %d", len(got))
	}
}

func TestNodeCmd(t *testing.T) {
	clientFn, outputFn, buf := fns(newInspector(), true)

	if err := run(t, NewNodeCmd(clientFn, outputFn), "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got domain.NodeInfo
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.ID != 42 || got.Status != domain.NodeStatusStarted {
		t.Errorf("unexpected node: %+v", got)
	}
}

func TestNodeCmd_Errors(t *testing.T) {
	clientFn, outputFn, _ := fns(newInspector(), false)

	if err := run(t, NewNodeCmd(clientFn, outputFn), "abc"); err == nil {
		t.Error("expected error for non-numeric id")
	}
	if err := run(t, NewNodeCmd(clientFn, outputFn), "99"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	failing := func() (Inspector, error) { return nil, errors.New("no client") }
	if err := run(t, NewNodeCmd(failing, outputFn), "42"); err == nil {
		t.Error("expected client error")
	}
}

func TestWorkflowCmd(t *testing.T) {
	clientFn, outputFn, buf := fns(newInspector(), false)

	if err := run(t, NewWorkflowCmd(clientFn, outputFn), "9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "dcm-to-png") || !strings.Contains(buf.String(), "heatmaps") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestPluginsCmd(t *testing.T) {
	clientFn, outputFn, buf := fns(newInspector(), false)

	if err := run(t, NewPluginsCmd(clientFn, outputFn)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "pl-topologicalcopy") || !strings.Contains(buf.String(), "1.0.4") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRecipeCmd_Default(t *testing.T) {
	_, outputFn, buf := fns(nil, false)

	if err := run(t, NewRecipeCmd(outputFn), "--seed", "xray.dcm"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "xray.dcm-dcm-heatmaps") {
		t.Errorf("expected rendered join title:\n%s", buf.String())
	}
}

func TestRecipeCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.toml")
	data := `
[[stages]]
pipeline = "custom"
wait_for = "target"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, outputFn, buf := fns(nil, true)
	if err := run(t, NewRecipeCmd(outputFn), "--file", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"pipeline": "custom"`) {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestTreeLogCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treeLog.json")
	data := `[
  {
    "branch": "b-1",
    "started_at": "2024-05-01T10:00:00Z",
    "finished_at": "2024-05-01T10:05:00Z",
    "seed": {"status": true, "input": "/incoming/a.dcm", "branchInstanceID": 101},
    "tree": {"status": true, "message": "ok", "result": {"node_id": 420, "outcome": "succeeded"}}
  }
]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, outputFn, buf := fns(nil, false)
	if err := run(t, NewTreeLogCmd(outputFn), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"b-1", "/incoming/a.dcm", "420", "succeeded", "5m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestEventsCmd_UnknownKind(t *testing.T) {
	_, outputFn, _ := fns(nil, false)
	connFn := func() (*mq.Connection, error) {
		t.Fatal("connection must not be opened for an invalid kind")
		return nil, nil
	}

	if err := run(t, NewEventsCmd(connFn, outputFn), "--kind", "pending"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(&buf, &bytes.Buffer{}, false)

	msg := mq.NewMessage(mq.MessageTypeBranchFinished, domain.BranchEvent{
		Branch: "b-1",
		Input:  "/incoming/a.dcm",
		Status: domain.BranchFailed,
		Error:  "stage \"inference\": remote platform unavailable",
	})
	if err := printEvent(out)(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "b-1") || !strings.Contains(buf.String(), "error: stage") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

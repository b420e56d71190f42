package cube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL + "/api/v1", User: "chris", Password: "chris1234"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "localhost:8000/api/v1/"},
		{"ftp", "ftp://cube/api/v1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(Config{URL: tt.url}, nil); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestListPipelines_Pagination(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pipelines/search/", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "chris" || pass != "chris1234" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected Accept header %q", r.Header.Get("Accept"))
		}
		if r.URL.Query().Get("name") != "Leg Length" {
			t.Errorf("unexpected name %q", r.URL.Query().Get("name"))
		}

		if r.URL.Query().Get("offset") == "" {
			writeJSON(w, map[string]any{
				"count":   2,
				"next":    srvURL + "/api/v1/pipelines/search/?name=Leg+Length&offset=1",
				"results": []map[string]any{{"id": 1, "name": "Leg Length Discrepency inference"}},
			})
			return
		}
		writeJSON(w, map[string]any{
			"count":   2,
			"next":    nil,
			"results": []map[string]any{{"id": 2, "name": "Leg Length Discrepency measurements"}},
		})
	})

	client, srv := newTestClient(t, mux)
	srvURL = srv.URL

	got, err := client.ListPipelines(context.Background(), "Leg Length")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.Pipeline{
		{ID: 1, Name: "Leg Length Discrepency inference"},
		{ID: 2, Name: "Leg Length Discrepency measurements"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pipelines mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineDefaults_GroupsByPiping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pipelines/3/parameters/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"count": 3,
			"results": []map[string]any{
				{"param_name": "model", "value": "heatmaps", "plugin_piping_id": 10, "plugin_piping_title": "heatmaps"},
				{"param_name": "dir", "value": "/out", "plugin_piping_id": 11, "plugin_piping_title": "dcm-to-png"},
				{"param_name": "threads", "value": 4, "plugin_piping_id": 10, "plugin_piping_title": "heatmaps"},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	got, err := client.PipelineDefaults(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.PipingDefaults{
		{
			PipingID:        10,
			ComputeResource: "host",
			Title:           "heatmaps",
			Defaults: []domain.ParameterDefault{
				{Name: "model", Default: "heatmaps"},
				{Name: "threads", Default: float64(4)},
			},
		},
		{
			PipingID:        11,
			ComputeResource: "host",
			Title:           "dcm-to-png",
			Defaults:        []domain.ParameterDefault{{Name: "dir", Default: "/out"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes_info mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateWorkflow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pipelines/3/workflows/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body struct {
			PreviousID int    `json:"previous_plugin_inst_id"`
			NodesInfo  string `json:"nodes_info"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.PreviousID != 55 {
			t.Errorf("expected previous id 55, got %d", body.PreviousID)
		}

		var nodes []domain.PipingDefaults
		if err := json.Unmarshal([]byte(body.NodesInfo), &nodes); err != nil {
			t.Errorf("nodes_info is not a JSON string: %v", err)
		}
		if len(nodes) != 1 || nodes[0].PipingID != 10 {
			t.Errorf("unexpected nodes_info: %+v", nodes)
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"id": 900})
	})

	client, _ := newTestClient(t, mux)

	id, err := client.CreateWorkflow(context.Background(), 3, 55, []domain.PipingDefaults{{PipingID: 10, ComputeResource: "host"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 900 {
		t.Errorf("expected workflow 900, got %d", id)
	}
}

func TestWorkflowNodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pipelines/workflows/900/plugininstances/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"count": 2,
			"results": []map[string]any{
				{"id": 301, "title": "dcm-to-png", "status": "started", "plugin_name": "pl-dcm2img", "previous_id": 55},
				{"id": 302, "title": "heatmaps", "status": "scheduled", "plugin_name": "pl-lld_inference", "previous_id": 301},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	got, err := client.WorkflowNodes(context.Background(), 900)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.NodeInfo{
		{ID: 301, Title: "dcm-to-png", Status: domain.NodeStatusStarted, PluginName: "pl-dcm2img", PreviousID: 55},
		{ID: 302, Title: "heatmaps", Status: domain.NodeStatusScheduled, PluginName: "pl-lld_inference", PreviousID: 301},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(domain.NodeInfo{}, "Raw")); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if len(got[0].Raw) == 0 {
		t.Error("expected raw payload to be kept")
	}
}

func TestNode_ErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/plugins/instances/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": 1, "title": "root", "status": "finishedSuccessfully", "previous_id": nil})
	})
	mux.HandleFunc("/api/v1/plugins/instances/2/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/api/v1/plugins/instances/3/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Authentication credentials were not provided."}`, http.StatusForbidden)
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	node, err := client.Node(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Status != domain.NodeStatusFinishedSuccessfully || node.PreviousID != 0 {
		t.Errorf("unexpected node: %+v", node)
	}

	if _, err := client.Node(ctx, 2); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("5xx: expected ErrRemoteUnavailable, got %v", err)
	}

	_, err = client.Node(ctx, 3)
	if !IsAPIError(err, http.StatusForbidden) {
		t.Errorf("403: expected APIError, got %v", err)
	}

	if _, err := client.Node(ctx, 4); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("404: expected ErrNotFound, got %v", err)
	}
}

func TestNode_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := New(Config{URL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Node(context.Background(), 1); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestCreateJoinNode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/plugins/7/instances/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}

		want := map[string]any{
			"previous_id":     float64(55),
			"title":           "xray-dcm-heatmaps",
			"filter":          `\.dcm$,\.csv$`,
			"plugininstances": "55,302",
		}
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{
			"id": 400, "title": "xray-dcm-heatmaps", "status": "scheduled",
			"plugin_name": "pl-topologicalcopy", "previous_id": 55,
		})
	})

	client, _ := newTestClient(t, mux)

	node, err := client.CreateJoinNode(context.Background(), 7, domain.JoinRequest{
		Title:      "xray-dcm-heatmaps",
		Filter:     `\.dcm$,\.csv$`,
		InputIDs:   []int{55, 302},
		PreviousID: 55,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.ID != 400 || node.PluginName != "pl-topologicalcopy" {
		t.Errorf("unexpected node: %+v", node)
	}
}

func TestListPlugins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/plugins/search/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"count":   1,
			"results": []map[string]any{{"id": 7, "name": r.URL.Query().Get("name"), "version": "1.0.4"}},
		})
	})

	client, _ := newTestClient(t, mux)

	got, err := client.ListPlugins(context.Background(), "pl-topologicalcopy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.Plugin{{ID: 7, Name: "pl-topologicalcopy", Version: "1.0.4"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plugins mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_MaxRequests(t *testing.T) {
	var inFlight, peak atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		writeJSON(w, map[string]any{"id": 1, "status": "started"})
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL, MaxRequests: 2}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Node(context.Background(), 1); err != nil {
				errs <- fmt.Errorf("node: %w", err)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent requests, got %d", peak.Load())
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.Node(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestClient_RequestsPerSecond(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": 1, "status": "started"})
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL, RequestsPerSecond: 50}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Node(context.Background(), 1); err != nil {
			t.Fatalf("node: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected requests to be throttled, took %s", elapsed)
	}
}

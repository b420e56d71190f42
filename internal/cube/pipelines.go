package cube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// DefaultComputeResource — compute-ресурс узлов workflow.
const DefaultComputeResource = "host"

// pipelineResponse — pipeline из CUBE.
type pipelineResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// defaultParameterResponse — параметр pipeline по умолчанию.
type defaultParameterResponse struct {
	ParamName   string `json:"param_name"`
	Value       any    `json:"value"`
	PipingID    int    `json:"plugin_piping_id"`
	PipingTitle string `json:"plugin_piping_title"`
	PluginName  string `json:"plugin_name,omitempty"`
}

type workflowRequest struct {
	PreviousID int    `json:"previous_plugin_inst_id"`
	NodesInfo  string `json:"nodes_info"`
}

type workflowResponse struct {
	ID int `json:"id"`
}

// ListPipelines возвращает pipelines, имя которых содержит name.
func (c *Client) ListPipelines(ctx context.Context, name string) ([]domain.Pipeline, error) {
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}

	items, err := c.list(ctx, "pipelines/search/", params)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}

	pipelines := make([]domain.Pipeline, 0, len(items))
	for _, raw := range items {
		var p pipelineResponse
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode pipeline: %w", err)
		}
		pipelines = append(pipelines, domain.Pipeline{ID: p.ID, Name: p.Name})
	}
	return pipelines, nil
}

// PipelineDefaults возвращает nodes_info pipeline: параметры
// по умолчанию, сгруппированные по piping в порядке появления.
func (c *Client) PipelineDefaults(ctx context.Context, pipelineID int) ([]domain.PipingDefaults, error) {
	items, err := c.list(ctx, "pipelines/"+strconv.Itoa(pipelineID)+"/parameters/", nil)
	if err != nil {
		return nil, fmt.Errorf("pipeline %d parameters: %w", pipelineID, err)
	}

	params := make([]defaultParameterResponse, 0, len(items))
	for _, raw := range items {
		var p defaultParameterResponse
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode parameter: %w", err)
		}
		params = append(params, p)
	}
	return nodesInfo(params), nil
}

// nodesInfo группирует параметры по piping.
func nodesInfo(params []defaultParameterResponse) []domain.PipingDefaults {
	var nodes []domain.PipingDefaults
	index := make(map[int]int)

	for _, p := range params {
		i, ok := index[p.PipingID]
		if !ok {
			i = len(nodes)
			index[p.PipingID] = i
			nodes = append(nodes, domain.PipingDefaults{
				PipingID:        p.PipingID,
				ComputeResource: DefaultComputeResource,
				Title:           p.PipingTitle,
				Defaults:        []domain.ParameterDefault{},
			})
		}
		if p.ParamName == "" {
			continue
		}
		nodes[i].Defaults = append(nodes[i].Defaults, domain.ParameterDefault{
			Name:    p.ParamName,
			Default: p.Value,
		})
	}
	return nodes
}

// CreateWorkflow создаёт workflow pipeline, прикреплённый к previousID.
//
// CUBE принимает nodes_info как JSON-строку внутри JSON тела.
func (c *Client) CreateWorkflow(ctx context.Context, pipelineID, previousID int, nodes []domain.PipingDefaults) (int, error) {
	if nodes == nil {
		nodes = []domain.PipingDefaults{}
	}
	info, err := json.Marshal(nodes)
	if err != nil {
		return 0, fmt.Errorf("marshal nodes_info: %w", err)
	}

	var wf workflowResponse
	req := workflowRequest{PreviousID: previousID, NodesInfo: string(info)}
	if err := c.post(ctx, "pipelines/"+strconv.Itoa(pipelineID)+"/workflows/", req, &wf); err != nil {
		return 0, fmt.Errorf("create workflow for pipeline %d: %w", pipelineID, err)
	}

	c.logger.Debug("workflow created", "pipeline_id", pipelineID, "workflow_id", wf.ID, "previous_id", previousID)
	return wf.ID, nil
}

// WorkflowNodes возвращает plugin instances workflow.
func (c *Client) WorkflowNodes(ctx context.Context, workflowID int) ([]domain.NodeInfo, error) {
	items, err := c.list(ctx, "pipelines/workflows/"+strconv.Itoa(workflowID)+"/plugininstances/", nil)
	if err != nil {
		return nil, fmt.Errorf("workflow %d nodes: %w", workflowID, err)
	}

	nodes := make([]domain.NodeInfo, 0, len(items))
	for _, raw := range items {
		node, err := decodeInstance(raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

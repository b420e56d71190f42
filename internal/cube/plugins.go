package cube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// instanceResponse — plugin instance из CUBE.
type instanceResponse struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	PluginName string `json:"plugin_name"`
	PreviousID *int   `json:"previous_id"`
}

type pluginResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

func decodeInstance(raw json.RawMessage) (domain.NodeInfo, error) {
	var inst instanceResponse
	if err := json.Unmarshal(raw, &inst); err != nil {
		return domain.NodeInfo{}, fmt.Errorf("decode plugin instance: %w", err)
	}

	node := domain.NodeInfo{
		ID:         inst.ID,
		Title:      inst.Title,
		Status:     domain.ParseNodeStatus(inst.Status),
		PluginName: inst.PluginName,
		Raw:        append(json.RawMessage(nil), raw...),
	}
	if inst.PreviousID != nil {
		node.PreviousID = *inst.PreviousID
	}
	return node, nil
}

// Node возвращает текущий снимок plugin instance.
func (c *Client) Node(ctx context.Context, nodeID int) (domain.NodeInfo, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "plugins/instances/"+strconv.Itoa(nodeID)+"/", nil, &raw); err != nil {
		return domain.NodeInfo{}, fmt.Errorf("plugin instance %d: %w", nodeID, err)
	}
	return decodeInstance(raw)
}

// ListPlugins возвращает плагины, имя которых содержит name.
func (c *Client) ListPlugins(ctx context.Context, name string) ([]domain.Plugin, error) {
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}

	items, err := c.list(ctx, "plugins/search/", params)
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}

	plugins := make([]domain.Plugin, 0, len(items))
	for _, raw := range items {
		var p pluginResponse
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode plugin: %w", err)
		}
		plugins = append(plugins, domain.Plugin{ID: p.ID, Name: p.Name, Version: p.Version})
	}
	return plugins, nil
}

// CreatePluginInstance запускает плагин pluginID.
//
// Параметры плагина передаются на верхнем уровне тела вместе
// с previous_id и title.
func (c *Client) CreatePluginInstance(ctx context.Context, pluginID int, req domain.PluginInstanceRequest) (domain.NodeInfo, error) {
	body := make(map[string]any, len(req.Params)+2)
	for k, v := range req.Params {
		body[k] = v
	}
	body["previous_id"] = req.PreviousID
	if req.Title != "" {
		body["title"] = req.Title
	}

	var raw json.RawMessage
	if err := c.post(ctx, "plugins/"+strconv.Itoa(pluginID)+"/instances/", body, &raw); err != nil {
		return domain.NodeInfo{}, fmt.Errorf("create instance of plugin %d: %w", pluginID, err)
	}

	node, err := decodeInstance(raw)
	if err != nil {
		return domain.NodeInfo{}, err
	}
	c.logger.Debug("plugin instance created", "plugin_id", pluginID, "node_id", node.ID, "title", node.Title)
	return node, nil
}

// CreateJoinNode создаёт topological join узел.
//
// plugininstances — ID всех входов через запятую, filter — по одному
// регулярному выражению на вход.
func (c *Client) CreateJoinNode(ctx context.Context, pluginID int, req domain.JoinRequest) (domain.NodeInfo, error) {
	ids := make([]string, len(req.InputIDs))
	for i, id := range req.InputIDs {
		ids[i] = strconv.Itoa(id)
	}

	return c.CreatePluginInstance(ctx, pluginID, domain.PluginInstanceRequest{
		PreviousID: req.PreviousID,
		Title:      req.Title,
		Params: map[string]any{
			"filter":          req.Filter,
			"plugininstances": strings.Join(ids, ","),
		},
	})
}

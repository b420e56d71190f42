package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// Inspector — операции платформы, которые нужны командам просмотра.
// Реализация: cube.Client.
type Inspector interface {
	ListPipelines(ctx context.Context, name string) ([]domain.Pipeline, error)
	ListPlugins(ctx context.Context, name string) ([]domain.Plugin, error)
	Node(ctx context.Context, nodeID int) (domain.NodeInfo, error)
	WorkflowNodes(ctx context.Context, workflowID int) ([]domain.NodeInfo, error)
}

// ClientFunc лениво создаёт Inspector после разбора флагов.
type ClientFunc func() (Inspector, error)

// OutputFunc лениво создаёт Output после разбора флагов.
type OutputFunc func() *Output

var nodeHeaders = []string{"ID", "TITLE", "STATUS", "PLUGIN", "PREVIOUS"}

func nodeRow(n domain.NodeInfo) []any {
	return []any{n.ID, n.Title, n.Status, n.PluginName, n.PreviousID}
}

// NewPipelinesCmd — список pipelines на платформе.
func NewPipelinesCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "pipelines",
		Short: "List pipelines registered on CUBE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}

			pipelines, err := client.ListPipelines(cmd.Context(), name)
			if err != nil {
				return err
			}

			rows := make([][]any, len(pipelines))
			for i, p := range pipelines {
				rows[i] = []any{p.ID, p.Name}
			}
			outputFn().Print([]string{"ID", "NAME"}, rows, pipelines)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Filter by name substring")
	return cmd
}

// NewPluginsCmd — список плагинов на платформе.
func NewPluginsCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List plugins registered on CUBE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}

			plugins, err := client.ListPlugins(cmd.Context(), name)
			if err != nil {
				return err
			}

			rows := make([][]any, len(plugins))
			for i, p := range plugins {
				rows[i] = []any{p.ID, p.Name, p.Version}
			}
			outputFn().Print([]string{"ID", "NAME", "VERSION"}, rows, plugins)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Filter by name substring")
	return cmd
}

// NewNodeCmd — текущий снимок plugin instance.
func NewNodeCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "node ID",
		Short: "Show a plugin instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			client, err := clientFn()
			if err != nil {
				return err
			}

			node, err := client.Node(cmd.Context(), id)
			if err != nil {
				return err
			}

			outputFn().Print(nodeHeaders, [][]any{nodeRow(node)}, node)
			return nil
		},
	}
}

// NewWorkflowCmd — plugin instances workflow.
func NewWorkflowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow ID",
		Short: "List plugin instances of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			client, err := clientFn()
			if err != nil {
				return err
			}

			nodes, err := client.WorkflowNodes(cmd.Context(), id)
			if err != nil {
				return err
			}

			rows := make([][]any, len(nodes))
			for i, n := range nodes {
				rows[i] = nodeRow(n)
			}
			outputFn().Print(nodeHeaders, rows, nodes)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

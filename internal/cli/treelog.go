package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// treeSummary — часть записи treeLog.json, нужная для сводки.
type treeSummary struct {
	Branch     string    `json:"branch"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Seed       struct {
		Status           bool   `json:"status"`
		Input            string `json:"input"`
		BranchInstanceID int    `json:"branchInstanceID"`
	} `json:"seed"`
	Tree struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Result  struct {
			NodeID  int                `json:"node_id"`
			Outcome domain.WaitOutcome `json:"outcome"`
		} `json:"result"`
		Error string `json:"error"`
	} `json:"tree"`
}

// NewTreeLogCmd печатает сводку treeLog.json.
func NewTreeLogCmd(outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "treelog FILE",
		Short: "Summarize a treeLog.json written by a growth cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var records []treeSummary
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			rows := make([][]any, len(records))
			for i, r := range records {
				rows[i] = []any{
					r.Branch,
					r.Seed.Input,
					r.Seed.BranchInstanceID,
					r.Tree.Status,
					r.Tree.Result.NodeID,
					r.Tree.Result.Outcome,
					r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
				}
			}
			outputFn().Print(
				[]string{"BRANCH", "INPUT", "SEED", "GROWN", "LAST NODE", "OUTCOME", "DURATION"},
				rows,
				records,
			)
			return nil
		},
	}
}

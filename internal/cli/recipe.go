package cli

import (
	"github.com/spf13/cobra"

	"github.com/FNNDSC/pl-dylld/internal/recipe"
)

// NewRecipeCmd показывает рецепт: встроенный или из файла.
func NewRecipeCmd(outputFn OutputFunc) *cobra.Command {
	var (
		file string
		seed string
	)

	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Show the stage recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := recipe.Default()
			if file != "" {
				loaded, err := recipe.Load(file)
				if err != nil {
					return err
				}
				r = loaded
			}

			stages, err := r.Render(recipe.Vars{Seed: seed, Branch: "preview"})
			if err != nil {
				return err
			}

			rows := make([][]any, len(stages))
			for i, s := range stages {
				join, filter, with := "-", "-", 0
				if s.Join != nil {
					join, filter, with = s.Join.Title, s.Join.Filter, len(s.Join.With)
				}
				rows[i] = []any{i + 1, s.Name, s.Pipeline, s.WaitFor, join, filter, with}
			}

			outputFn().Print(
				[]string{"#", "STAGE", "PIPELINE", "WAIT FOR", "JOIN", "FILTER", "EXTRA INPUTS"},
				rows,
				r,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Recipe file (yaml, toml or json)")
	cmd.Flags().StringVar(&seed, "seed", "example.dcm", "Seed name used to render join titles")
	return cmd
}

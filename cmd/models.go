package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tablechart-cli/internal/ai"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List AI runtimes and the model each one uses",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		for _, p := range ai.Providers() {
			model := ai.DefaultModel(p)
			marker := " "
			if p == c.Provider {
				marker = "*"
				if c.Model != "" {
					model = c.Model
				}
			}
			fmt.Fprintf(out, "%s %-10s %s\n", marker, p, model)
		}
		if c.Provider == ai.ProviderNone {
			fmt.Fprintln(out, "* none       (local heuristics only)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

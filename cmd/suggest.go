package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KaramelBytes/tablechart-cli/internal/advisor"
	"github.com/KaramelBytes/tablechart-cli/internal/suggest"
	"github.com/KaramelBytes/tablechart-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	sugOffline    bool
	sugTimeoutSec int
	sugJSON       bool
	sugOutputPath string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Suggest charts for a table using the configured AI runtime or local heuristics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		adv := newAdvisor(cmd, sugOffline, time.Duration(sugTimeoutSec)*time.Second)
		an := adv.Analyze(cmd.Context(), advisor.Request{Dataset: res.Dataset, Name: res.Name})

		if sugJSON || strings.HasSuffix(strings.ToLower(sugOutputPath), ".json") {
			b, err := utils.PrettyJSON(an)
			if err != nil {
				return err
			}
			return writeOutput(cmd, sugOutputPath, b, "suggestions")
		}
		var sb strings.Builder
		printAnalysis(&sb, res.Name, an)
		return writeOutput(cmd, sugOutputPath, []byte(sb.String()), "suggestions")
	},
}

func printAnalysis(w io.Writer, name string, an *suggest.Analysis) {
	fmt.Fprintf(w, "Dataset: %s (source: %s)\n", name, an.Source)
	fmt.Fprintf(w, "Summary: %s\n\n", an.DatasetSummary)
	cls := an.ColumnAnalysis
	fmt.Fprintln(w, "Columns:")
	fmt.Fprintf(w, "  numeric:     %s\n", joinOrNone(cls.Numeric))
	fmt.Fprintf(w, "  categorical: %s\n", joinOrNone(cls.Categorical))
	fmt.Fprintf(w, "  temporal:    %s\n", joinOrNone(cls.Temporal))

	fmt.Fprintf(w, "\nSuggested charts (%d):\n", len(an.SuggestedCharts))
	if len(an.SuggestedCharts) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, s := range an.SuggestedCharts {
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, s.Type, s.Title)
		fmt.Fprintf(w, "     x: %s  y: %s", s.XAxis, s.YAxis)
		if s.GroupBy != "" {
			fmt.Fprintf(w, "  group: %s", s.GroupBy)
		}
		fmt.Fprintln(w)
		if s.Reasoning != "" {
			fmt.Fprintf(w, "     %s\n", s.Reasoning)
		}
	}
	printList(w, "Key insights", an.KeyInsights)
	printList(w, "Recommended filters", an.RecommendedFilters)
	printList(w, "Data quality notes", an.DataQualityNotes)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func joinOrNone(xs []string) string {
	if len(xs) == 0 {
		return "(none)"
	}
	return strings.Join(xs, ", ")
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	addInputFlags(suggestCmd)
	suggestCmd.Flags().BoolVar(&sugOffline, "offline", false, "skip the AI runtime and use local heuristics only")
	suggestCmd.Flags().IntVar(&sugTimeoutSec, "timeout", 0, "seconds to wait for the analysis service (0 = config service_timeout_sec)")
	suggestCmd.Flags().BoolVar(&sugJSON, "json", false, "emit the analysis as JSON")
	suggestCmd.Flags().StringVarP(&sugOutputPath, "output", "o", "", "write the result to this path instead of stdout")
}

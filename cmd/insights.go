package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/tablechart-cli/internal/advisor"
	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/suggest"
	"github.com/KaramelBytes/tablechart-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	insCharts     string
	insOffline    bool
	insTimeoutSec int
	insJSON       bool
	insOutputPath string
)

var insightsCmd = &cobra.Command{
	Use:   "insights <file>",
	Short: "Summarize trends, anomalies and recommendations for a table and its charts",
	Long: `Produce an insight report. Charts come from --charts (a JSON array of chart specs,
or a saved 'suggest --json' result); without it the suggested charts are used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		adv := newAdvisor(cmd, insOffline, time.Duration(insTimeoutSec)*time.Second)

		var charts []chart.Spec
		if insCharts != "" {
			charts, err = readCharts(insCharts)
			if err != nil {
				return err
			}
		} else {
			an := adv.Analyze(cmd.Context(), advisor.Request{Dataset: res.Dataset, Name: res.Name})
			charts = an.SuggestedCharts
		}
		if len(charts) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: no charts to summarize; the report covers the dataset only")
		}

		rep := adv.Insights(cmd.Context(), advisor.InsightRequest{Dataset: res.Dataset, Name: res.Name, Charts: charts})
		if insJSON {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			return writeOutput(cmd, insOutputPath, b, "insights")
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "Insights for %s (source: %s)\n\n", res.Name, rep.Source)
		fmt.Fprintln(&sb, rep.ExecutiveSummary)
		printList(&sb, "Trends", rep.Trends)
		printList(&sb, "Anomalies", rep.Anomalies)
		printList(&sb, "Recommendations", rep.Recommendations)
		printList(&sb, "Outlook", rep.PredictiveInsights)
		return writeOutput(cmd, insOutputPath, []byte(sb.String()), "insights")
	},
}

// readCharts accepts a JSON array of specs or an object carrying suggestedCharts.
func readCharts(path string) ([]chart.Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read charts: %w", err)
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var specs []chart.Spec
		if err := json.Unmarshal(b, &specs); err != nil {
			return nil, fmt.Errorf("parse charts %s: %w", path, err)
		}
		return specs, nil
	}
	var an suggest.Analysis
	if err := json.Unmarshal(b, &an); err != nil {
		return nil, fmt.Errorf("parse charts %s: %w", path, err)
	}
	return an.SuggestedCharts, nil
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	addInputFlags(insightsCmd)
	insightsCmd.Flags().StringVar(&insCharts, "charts", "", "JSON file with chart specs (array or suggest --json output)")
	insightsCmd.Flags().BoolVar(&insOffline, "offline", false, "skip the AI runtime and use local heuristics only")
	insightsCmd.Flags().IntVar(&insTimeoutSec, "timeout", 0, "seconds to wait for the analysis service (0 = config service_timeout_sec)")
	insightsCmd.Flags().BoolVar(&insJSON, "json", false, "emit the report as JSON")
	insightsCmd.Flags().StringVarP(&insOutputPath, "output", "o", "", "write the report to this path instead of stdout")
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	serAggregation  string
	serMaxPoints    int
	serSampleTarget int
	serMaxSlices    int
	serOutputPath   string
)

var seriesCmd = &cobra.Command{
	Use:   "series <file>",
	Short: "Build the chart-ready series for a spec and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		spec, err := specFromFlags(cmd)
		if err != nil {
			return err
		}

		aggName := currentConfig().Aggregation
		if cmd.Flags().Changed("aggregation") {
			aggName = serAggregation
		}
		agg, ok := chart.ParseAggregation(aggName)
		if !ok {
			return fmt.Errorf("unsupported --aggregation: %s (use mean|sum)", aggName)
		}
		opts := []chart.Option{chart.WithAggregation(agg)}
		if serMaxPoints > 0 {
			opts = append(opts, chart.WithMaxPoints(serMaxPoints))
		}
		if serSampleTarget > 0 {
			opts = append(opts, chart.WithSampleTarget(serSampleTarget))
		}
		if serMaxSlices > 0 {
			opts = append(opts, chart.WithMaxPieSlices(serMaxSlices))
		}

		series, vr := chart.BuildSeries(res.Dataset, spec, opts...)
		for _, w := range vr.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}
		if !vr.Valid {
			for _, e := range vr.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s\n", e)
			}
			return fmt.Errorf("chart spec is invalid (%d error(s))", len(vr.Errors))
		}
		slog.Debug("series built", "type", spec.Type, "points", len(series), "aggregation", agg)
		b, err := utils.PrettyJSON(series)
		if err != nil {
			return err
		}
		return writeOutput(cmd, serOutputPath, b, "series")
	},
}

func init() {
	rootCmd.AddCommand(seriesCmd)
	addInputFlags(seriesCmd)
	addSpecFlags(seriesCmd)
	seriesCmd.Flags().StringVar(&serAggregation, "aggregation", "", "how repeated x values combine: mean|sum (default from config)")
	seriesCmd.Flags().IntVar(&serMaxPoints, "max-points", 0, "series longer than this are down-sampled (default 100)")
	seriesCmd.Flags().IntVar(&serSampleTarget, "sample-target", 0, "points kept by down-sampling (default 75)")
	seriesCmd.Flags().IntVar(&serMaxSlices, "max-slices", 0, "maximum pie slices including Others (default 12)")
	seriesCmd.Flags().StringVarP(&serOutputPath, "output", "o", "", "write the series JSON to this path instead of stdout")
}

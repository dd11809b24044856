package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/utils"
	"github.com/spf13/cobra"
)

var valJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a chart spec against a table",
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
		vr := chart.ValidateSpec(res.Dataset, spec)
		if valJSON {
			b, err := utils.PrettyJSON(vr)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(b); err != nil {
				return err
			}
		} else {
			printValidation(cmd, vr)
		}
		if !vr.Valid {
			return fmt.Errorf("chart spec is invalid (%d error(s))", len(vr.Errors))
		}
		return nil
	},
}

func printValidation(cmd *cobra.Command, vr chart.ValidationResult) {
	out := cmd.OutOrStdout()
	if vr.Valid {
		fmt.Fprintln(out, "✓ Valid")
	}
	for _, e := range vr.Errors {
		fmt.Fprintf(out, "✗ %s\n", e)
	}
	for _, w := range vr.Warnings {
		fmt.Fprintf(out, "⚠ %s\n", w)
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addInputFlags(validateCmd)
	addSpecFlags(validateCmd)
	validateCmd.Flags().BoolVar(&valJSON, "json", false, "emit the validation result as JSON")
}

package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/tablechart-cli/internal/advisor"
	"github.com/KaramelBytes/tablechart-cli/internal/ai"
	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/ingest"
	"github.com/KaramelBytes/tablechart-cli/internal/utils"
	"github.com/spf13/cobra"
)

// Input flags shared by every command that reads a table.
var (
	inDelimiter  string
	inSheetName  string
	inSheetIndex int
	inMaxRows    int
)

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&inDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	c.Flags().StringVar(&inSheetName, "sheet-name", "", "XLSX: sheet name to read")
	c.Flags().IntVar(&inSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().IntVar(&inMaxRows, "max-rows", 0, "maximum data rows to read (0 = config max_rows, unlimited by default)")
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "\t", "tab", "\\t":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// loadDataset reads path with the input flags applied.
func loadDataset(cmd *cobra.Command, path string) (*ingest.Result, error) {
	delim, err := parseDelimiter(inDelimiter)
	if err != nil {
		return nil, err
	}
	maxRows := currentConfig().MaxRows
	if cmd.Flags().Changed("max-rows") {
		maxRows = inMaxRows
	}
	res, err := ingest.Load(path, ingest.Options{
		Delimiter:  delim,
		MaxRows:    maxRows,
		Sheet:      inSheetName,
		SheetIndex: inSheetIndex,
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("dataset loaded", "file", path, "rows", res.Dataset.Len(), "columns", len(res.Dataset.Columns))
	if res.Truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s truncated to %d rows (--max-rows)\n", res.Name, maxRows)
	}
	return res, nil
}

// expandInputs resolves glob patterns and literal paths into a sorted,
// de-duplicated file list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// writeOutput writes data to path (announcing it on stdout) or prints it.
func writeOutput(cmd *cobra.Command, path string, data []byte, what string) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := utils.SafeWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", what, path)
	return nil
}

// Chart spec flags shared by validate and series.
var (
	specType    string
	specX       string
	specY       string
	specGroupBy string
	specTitle   string
	specFilters []string
	specFile    string
)

func addSpecFlags(c *cobra.Command) {
	c.Flags().StringVar(&specType, "type", "", "chart type: bar|line|area|pie|scatter|combo")
	c.Flags().StringVar(&specX, "x", "", "x-axis column (row_index for the row position)")
	c.Flags().StringVar(&specY, "y", "", "y-axis column")
	c.Flags().StringVar(&specGroupBy, "group-by", "", "optional grouping column")
	c.Flags().StringVar(&specTitle, "title", "", "chart title")
	c.Flags().StringArrayVar(&specFilters, "filter", nil, "filter as column:op:value or column=value (repeatable)")
	c.Flags().StringVar(&specFile, "spec", "", "read the chart spec from a JSON file (flags override its fields)")
}

// specFromFlags assembles a chart spec from --spec and the individual flags.
func specFromFlags(cmd *cobra.Command) (chart.Spec, error) {
	var s chart.Spec
	if specFile != "" {
		b, err := os.ReadFile(specFile)
		if err != nil {
			return s, fmt.Errorf("read spec: %w", err)
		}
		if err := json.Unmarshal(b, &s); err != nil {
			return s, fmt.Errorf("parse spec %s: %w", specFile, err)
		}
	}
	f := cmd.Flags()
	if f.Changed("type") || s.Type == "" {
		if specType == "" {
			return s, fmt.Errorf("--type is required")
		}
		s.Type = chart.Type(specType)
	}
	t, err := chart.ParseType(string(s.Type))
	if err != nil {
		return s, err
	}
	s.Type = t
	if f.Changed("x") {
		s.XAxis = specX
	}
	if f.Changed("y") {
		s.YAxis = specY
	}
	if f.Changed("group-by") {
		s.GroupBy = specGroupBy
	}
	if f.Changed("title") {
		s.Title = specTitle
	}
	for _, raw := range specFilters {
		flt, err := chart.ParseFilter(raw)
		if err != nil {
			return s, err
		}
		s.Filters = append(s.Filters, flt)
	}
	if strings.TrimSpace(s.XAxis) == "" || strings.TrimSpace(s.YAxis) == "" {
		return s, fmt.Errorf("both --x and --y are required")
	}
	return s, nil
}

// newAdvisor builds an advisor from the loaded configuration. offline or an
// unusable provider yields the heuristic-only advisor.
func newAdvisor(cmd *cobra.Command, offline bool, timeout time.Duration) *advisor.Advisor {
	c := currentConfig()
	adv := &advisor.Advisor{
		Timeout: c.ServiceTimeout(),
		Logger:  slog.Default(),
		OnFallback: func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: analysis service failed, using local heuristics: %v\n", err)
			if hint := ai.Hint(err); hint != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "   Hint: %s\n", hint)
			}
		},
	}
	if timeout > 0 {
		adv.Timeout = timeout
	}
	if offline || c.Provider == ai.ProviderNone {
		return adv
	}
	if c.Provider == ai.ProviderOpenRouter && c.APIKey == "" {
		slog.Debug("no api key configured; analysis service disabled")
		return adv
	}
	rt, ok := ai.GetRuntime(c.Provider, ai.RuntimeConfig{
		HTTPTimeout: c.HTTPTimeout(),
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Host:        c.OllamaHost,
	})
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: unknown provider %q (available: %s); using local heuristics\n",
			c.Provider, strings.Join(ai.Providers(), ", "))
		return adv
	}
	model := c.Model
	if model == "" {
		model = ai.DefaultModel(c.Provider)
	}
	adv.Service = advisor.NewRuntimeService(rt, model)
	return adv
}

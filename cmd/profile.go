package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	profOutputPath string
	profOutDir     string
	profJSON       bool
	profSampleRows int
	profOutliers   bool
	profQuiet      bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <files...>",
	Short: "Profile CSV/TSV/XLSX/JSON tables: column types, statistics and outliers",
	Long: `Profile one or more tables. Arguments may be glob patterns. A single file is
printed to stdout (or --output); several files are processed with progress and either
printed in turn or written to --out-dir as <name>.profile.md (or .json).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if profOutputPath != "" && len(files) > 1 {
			return fmt.Errorf("--output takes a single input; use --out-dir for %d files", len(files))
		}

		opt := analysis.DefaultOptions()
		opt.SampleRows = currentConfig().SampleRows
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = profSampleRows
		}
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = profOutliers
		}

		total := len(files)
		for i, path := range files {
			if total > 1 && !profQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			res, err := loadDataset(cmd, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rep := analysis.Profile(res.Dataset, res.Name, opt)
			// Markdown on stdout already lists the warnings.
			if (profOutDir != "" || profOutputPath != "") && !profQuiet {
				for _, w := range rep.Warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s: %s\n", res.Name, w)
				}
			}
			out, err := renderProfile(rep)
			if err != nil {
				return err
			}

			switch {
			case profOutDir != "":
				dest, err := profileDest(profOutDir, path)
				if err != nil {
					return err
				}
				if err := utils.SafeWriteFile(dest, out, 0o644); err != nil {
					return fmt.Errorf("write profile: %w", err)
				}
				if !profQuiet {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile of %s to %s\n", res.Name, dest)
				}
			case profOutputPath != "":
				if err := writeOutput(cmd, profOutputPath, out, "profile"); err != nil {
					return err
				}
			default:
				if _, err := cmd.OutOrStdout().Write(out); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func renderProfile(rep *analysis.Report) ([]byte, error) {
	if profJSON {
		return utils.PrettyJSON(rep)
	}
	md := rep.Markdown()
	if !strings.HasSuffix(md, "\n") {
		md += "\n"
	}
	return []byte(md), nil
}

// profileDest picks <dir>/<base>.profile.<ext>, adding a __N suffix when a
// file of that name already exists.
func profileDest(dir, input string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	ext := ".profile.md"
	if profJSON {
		ext = ".profile.json"
	}
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if inSheetName != "" {
		base += "__sheet-" + sheetSlug(inSheetName)
	}
	dest := filepath.Join(dir, base+ext)
	if _, err := os.Stat(dest); err != nil {
		return dest, nil
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, nil
		}
	}
}

func sheetSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "sheet"
	}
	return s
}

func init() {
	rootCmd.AddCommand(profileCmd)
	addInputFlags(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "write the profile to this path instead of stdout")
	profileCmd.Flags().StringVar(&profOutDir, "out-dir", "", "write one profile per input into this directory")
	profileCmd.Flags().BoolVar(&profJSON, "json", false, "emit the profile as JSON instead of Markdown")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables samples)")
	profileCmd.Flags().BoolVar(&profOutliers, "outliers", true, "compute IQR outlier counts for numeric columns")
	profileCmd.Flags().BoolVarP(&profQuiet, "quiet", "q", false, "suppress progress and status lines")
}

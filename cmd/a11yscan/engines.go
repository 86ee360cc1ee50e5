package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/report"
)

// NewEnginesCmd creates the engines command.
func NewEnginesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "Import axe-core and Lighthouse results into the spreadsheet",
		Long: `Engines reads results produced by external accessibility engines and
writes their violations to the "Engine Violations" sheet of the spreadsheet.
The sheet is replaced on every run; other sheets are kept.

Supported inputs:
- axe-core JSON: an array of {url, violations, error} objects or a single one
- Lighthouse JSON reports with an accessibility category

Examples:
  a11yscan engines --axe axe-results.json
  a11yscan engines --lighthouse home.json --lighthouse docs.json -o audit.xlsx`,
		Args: cobra.NoArgs,
		RunE: runEnginesCmd,
	}

	cmd.Flags().StringSlice("axe", nil, "axe-core result files")
	cmd.Flags().StringSlice("lighthouse", nil, "Lighthouse report files")
	cmd.Flags().StringP("output", "o", config.DefaultTableFile, "Spreadsheet to write")

	return cmd
}

// runEnginesCmd executes the engines command.
func runEnginesCmd(cmd *cobra.Command, _ []string) error {
	axeFiles, err := cmd.Flags().GetStringSlice("axe")
	if err != nil {
		return err
	}
	lighthouseFiles, err := cmd.Flags().GetStringSlice("lighthouse")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if len(axeFiles) == 0 && len(lighthouseFiles) == 0 {
		return errors.New("no engine results given: use --axe or --lighthouse")
	}

	logger := setupLogger(cmd)

	results := make([]model.EngineResult, 0)
	for _, path := range axeFiles {
		loaded, err := loadEngineFile(path, report.LoadAxeResults)
		if err != nil {
			return err
		}
		results = append(results, loaded...)
	}
	for _, path := range lighthouseFiles {
		loaded, err := loadEngineFile(path, func(r io.Reader) ([]model.EngineResult, error) {
			res, err := report.LoadLighthouseReport(r)
			if err != nil {
				return nil, err
			}
			return []model.EngineResult{res}, nil
		})
		if err != nil {
			return err
		}
		results = append(results, loaded...)
	}

	if err := report.ExportEngineViolations(commandContext(cmd), results, output); err != nil {
		return fmt.Errorf("failed to export engine violations: %w", err)
	}
	logger.Info("engine violations exported", "results", len(results), "path", output)

	fmt.Fprintln(cmd.OutOrStdout(), engineTable(results))
	fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %s to %s\n", report.EngineSheet, output)
	return nil
}

// loadEngineFile opens path and decodes it with load.
func loadEngineFile(path string, load func(io.Reader) ([]model.EngineResult, error)) ([]model.EngineResult, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	results, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return results, nil
}

// engineTable renders one row per engine result.
func engineTable(results []model.EngineResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"URL", "Engine", "Violations", "Error"})
	total := 0
	for _, r := range results {
		total += len(r.Violations)
		t.AppendRow(table.Row{r.Source, r.Engine, len(r.Violations), orDash(r.Error)})
	}
	t.AppendFooter(table.Row{"Total", "", total, ""})
	return t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/report"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [store]",
		Short: "Export the incidence store to a spreadsheet or summary",
		Long: `Export reads the JSON incidence store written by 'a11yscan scan' and
writes its incidences to a spreadsheet, a summary, or both.

Examples:
  # Rebuild the spreadsheet from incidences.json
  a11yscan export --force

  # Markdown summary of high severity incidences only
  a11yscan export --no-table --min-severity high -f markdown store.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExportCmd,
	}

	cmd.Flags().String("table", config.DefaultTableFile, "Spreadsheet to write")
	cmd.Flags().Bool("no-table", false, "Do not write a spreadsheet")
	cmd.Flags().Bool("force", false, "Replace an existing spreadsheet instead of failing")
	cmd.Flags().StringP("format", "f", "",
		"Also print a summary in this format: text, markdown or json")
	cmd.Flags().StringP("output", "o", "", "Write the summary to this file instead of stdout")
	cmd.Flags().String("min-severity", "", "Only export incidences of this severity or higher")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, args []string) error {
	storePath := config.DefaultStoreFile
	if len(args) == 1 {
		storePath = args[0]
	}
	flags := cmd.Flags()
	tablePath, err := flags.GetString("table")
	if err != nil {
		return err
	}
	if noTable, _ := flags.GetBool("no-table"); noTable {
		tablePath = ""
	}
	force, err := flags.GetBool("force")
	if err != nil {
		return err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	output, err := flags.GetString("output")
	if err != nil {
		return err
	}
	minSeverity, err := flags.GetString("min-severity")
	if err != nil {
		return err
	}
	if tablePath == "" && format == "" {
		return errors.New("nothing to export: use --table or --format")
	}

	logger := setupLogger(cmd)
	ctx := commandContext(cmd)

	if _, err := os.Stat(storePath); err != nil {
		return fmt.Errorf("incidence store %s: %w", storePath, err)
	}
	store, err := report.NewStore(storePath, report.WithStoreLogger(logger))
	if err != nil {
		return err
	}
	incidences, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load incidence store: %w", err)
	}
	if incidences, err = filterSeverity(incidences, minSeverity); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if tablePath != "" {
		if _, err := os.Stat(tablePath); err == nil {
			if !force {
				return fmt.Errorf("spreadsheet already exists: %s (use --force to replace)", tablePath)
			}
			if err := os.Remove(tablePath); err != nil {
				return fmt.Errorf("failed to replace spreadsheet: %w", err)
			}
		}
		if err := report.ExportTabular(ctx, incidences, tablePath); err != nil {
			return fmt.Errorf("failed to export spreadsheet: %w", err)
		}
		fmt.Fprintf(out, "Exported %d incidence(s) to %s\n", len(incidences), tablePath)
	}

	if format == "" {
		return nil
	}
	summaryOut := out
	if output != "" {
		f, err := createReportFile(output)
		if err != nil {
			return err
		}
		defer f.Close()
		summaryOut = f
	}
	writer, err := newSummaryWriter(format, summaryOut, getVerboseFlag(cmd))
	if err != nil {
		return err
	}
	_, err = writer.Write(model.NewSummary(documentCount(incidences), incidences))
	return err
}

// filterSeverity keeps incidences at or above the named severity.
// An empty name keeps everything.
func filterSeverity(incidences []model.Incidence, name string) ([]model.Incidence, error) {
	if name == "" {
		return incidences, nil
	}
	threshold, err := model.ParseSeverity(name)
	if err != nil {
		return nil, fmt.Errorf("invalid --min-severity: %w", err)
	}
	kept := make([]model.Incidence, 0, len(incidences))
	for _, inc := range incidences {
		if inc.Severity >= threshold {
			kept = append(kept, inc)
		}
	}
	return kept, nil
}

// documentCount returns the number of distinct page URLs.
func documentCount(incidences []model.Incidence) int {
	seen := make(map[string]bool)
	for _, inc := range incidences {
		seen[inc.Source] = true
	}
	return len(seen)
}

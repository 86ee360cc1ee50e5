package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/model"
)

// ErrRunNotFound is returned when a run id is not in the history.
var ErrRunNotFound = errors.New("run not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "List past runs and compare their incidences",
		Long: `History shows the runs saved by 'a11yscan scan'.

Without flags it lists runs, newest first, optionally only those of one
target. With --compare it diffs the two latest runs of the target and shows
new, resolved and unchanged incidences. Incidences are matched by page,
checker, title and element.

Examples:
  # List every run
  a11yscan history

  # Compare the two latest runs of a site
  a11yscan history --compare https://www.example.com/

  # Compare two specific runs
  a11yscan history --from 0b6f... --to 9c21...

  # Show one run
  a11yscan history --run 9c21...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("compare", false, "Compare the two latest runs of the target")
	cmd.Flags().String("from", "", "Older run id to compare")
	cmd.Flags().String("to", "", "Newer run id to compare")
	cmd.Flags().String("run", "", "Show the incidences of one run")
	cmd.Flags().String("delete", "", "Delete a run")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	compare, _ := flags.GetBool("compare")
	from, _ := flags.GetString("from")
	to, _ := flags.GetString("to")
	runID, _ := flags.GetString("run")
	deleteID, _ := flags.GetString("delete")
	jsonOutput, _ := flags.GetBool("json")
	dbDir, _ := flags.GetString("db-dir")
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	var target string
	if len(args) == 1 {
		target = args[0]
	}
	if compare && target == "" {
		return errors.New("--compare needs a target (see 'a11yscan history' for the list)")
	}
	if (from == "") != (to == "") {
		return errors.New("--from and --to must be used together")
	}

	setupLogger(cmd)
	ctx := commandContext(cmd)

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	switch {
	case deleteID != "":
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %s\n", deleteID)
		return nil
	case runID != "":
		run, err := getRun(ctx, db, runID)
		if err != nil {
			return err
		}
		return showRun(out, run, jsonOutput)
	case from != "":
		older, err := getRun(ctx, db, from)
		if err != nil {
			return err
		}
		newer, err := getRun(ctx, db, to)
		if err != nil {
			return err
		}
		return showDiff(out, older, newer, jsonOutput)
	case compare:
		runs, err := db.LatestRuns(ctx, target, 2)
		if err != nil {
			return err
		}
		if len(runs) < 2 {
			return fmt.Errorf("need at least two runs of %s to compare, found %d", target, len(runs))
		}
		return showDiff(out, runs[1], runs[0], jsonOutput)
	default:
		runs, err := db.ListRuns(ctx, target)
		if err != nil {
			return err
		}
		return listRuns(out, runs, jsonOutput)
	}
}

// getRun loads a run or returns ErrRunNotFound.
func getRun(ctx context.Context, db *database.HistoryDB, id string) (*database.Run, error) {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// listRuns prints run metadata.
func listRuns(w io.Writer, runs []database.RunMetadata, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in the history.")
		fmt.Fprintln(w, "\nUse 'a11yscan scan' to check documents.")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Date", "Target", "Documents", "Failed", "High", "Medium", "Low"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Target,
			r.Documents, r.Failed, r.HighCount, r.MediumCount, r.LowCount,
		})
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

// showRun prints the incidences of a run.
func showRun(w io.Writer, run *database.Run, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, run)
	}
	summary := run.Summary()
	fmt.Fprintf(w, "Run %s of %s at %s\n", run.ID, run.Target, run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "%d document(s), %d incidence(s): %d high, %d medium, %d low\n\n",
		summary.Documents, summary.Total(), summary.HighCount, summary.MediumCount, summary.LowCount)
	if summary.HasIncidences() {
		fmt.Fprintln(w, incidenceTable(run.Incidences))
	}
	return nil
}

// runDiffOutput is the JSON form of a comparison.
type runDiffOutput struct {
	Older     string            `json:"older"`
	Newer     string            `json:"newer"`
	New       []model.Incidence `json:"new"`
	Resolved  []model.Incidence `json:"resolved"`
	Unchanged int               `json:"unchanged"`
}

// showDiff prints what changed between two runs.
func showDiff(w io.Writer, older, newer *database.Run, jsonOutput bool) error {
	diff := database.CompareRuns(older, newer)
	if jsonOutput {
		return writeJSON(w, runDiffOutput{
			Older:     older.ID,
			Newer:     newer.ID,
			New:       diff.New,
			Resolved:  diff.Resolved,
			Unchanged: len(diff.Unchanged),
		})
	}

	fmt.Fprintf(w, "Comparing %s (%s) with %s (%s)\n\n",
		older.ID, older.StartedAt.Local().Format(time.DateTime),
		newer.ID, newer.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "New: %d  Resolved: %d  Unchanged: %d\n",
		len(diff.New), len(diff.Resolved), len(diff.Unchanged))

	if len(diff.New) > 0 {
		fmt.Fprintln(w, "\nNew incidences:")
		fmt.Fprintln(w, incidenceTable(diff.New))
	}
	if len(diff.Resolved) > 0 {
		fmt.Fprintln(w, "\nResolved incidences:")
		fmt.Fprintln(w, incidenceTable(diff.Resolved))
	}
	if len(diff.New) == 0 && len(diff.Resolved) == 0 {
		fmt.Fprintln(w, "\nNo changes.")
	}
	return nil
}

// incidenceTable renders incidences as a compact table.
func incidenceTable(incidences []model.Incidence) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Title", "Page", "Element", "WCAG"})
	for _, inc := range incidences {
		t.AppendRow(table.Row{
			inc.Severity, inc.Title, inc.Source, orDash(inc.ElementKey()), orDash(inc.Criterion()),
		})
	}
	return t.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

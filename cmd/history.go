package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dotcommander/shs/internal/config"
	"github.com/dotcommander/shs/internal/store"
)

var (
	historyLimit int
	historyDB    string
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List batch runs recorded with --db",
	Long: `Without arguments, list the most recent runs stored in the history
database. With a run id, list the evaluations of that run.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runHistory(cmd.Context(), cmd.OutOrStdout(), args); err != nil {
			fail(cmd, err, 1)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to list")
	historyCmd.Flags().StringVar(&historyDB, "db", "", "History database (defaults to the configured db)")
}

func runHistory(ctx context.Context, w io.Writer, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path := historyDB
	if path == "" {
		path = cfg.DB
	}
	if path == "" {
		return errors.New("no history database: pass --db or set db in .shsrc")
	}

	st, err := store.Open(path, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if len(args) == 1 {
		evals, err := st.RunEvaluations(ctx, args[0])
		if err != nil {
			return err
		}
		return printEvaluations(w, cfg, evals)
	}

	runs, err := st.RecentRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	return printRuns(w, cfg, runs)
}

func printRuns(w io.Writer, cfg *config.Config, runs []store.Run) error {
	if cfg.Format == "json" {
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Run", "Created", "Lang", "Scored", "Failed", "Mean score", "Duration")
	for _, r := range runs {
		mean := "-"
		if r.MeanScore != nil {
			mean = fmt.Sprintf("%.2f", *r.MeanScore)
		}
		t.Row(r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Language,
			fmt.Sprintf("%d/%d", r.Succeeded, r.Total),
			fmt.Sprintf("%d", r.Failed+r.FileErrors),
			mean,
			(time.Duration(r.DurationMS) * time.Millisecond).String())
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func printEvaluations(w io.Writer, cfg *config.Config, evals []store.Evaluation) error {
	if cfg.Format == "json" {
		return writeJSON(w, evals)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Source", "Score", "Band", "Error")
	for _, e := range evals {
		score := "-"
		if e.Record != nil {
			score = fmt.Sprintf("%.2f", e.Record.OverallScore)
		}
		t.Row(fmt.Sprintf("%d", e.Seq), fmt.Sprintf("%s#%d", e.Source, e.RecordIndex), score, e.Band, e.Error)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

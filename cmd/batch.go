package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/shs/internal/baseline"
	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/config"
	"github.com/dotcommander/shs/internal/discovery"
	"github.com/dotcommander/shs/internal/metrics"
	"github.com/dotcommander/shs/internal/output"
	"github.com/dotcommander/shs/internal/outputters"
	"github.com/dotcommander/shs/internal/store"
)

var (
	showStats        bool
	statsOutput      string
	baselinePath     string
	saveBaseline     bool
	failOnRegression bool
)

// Batch exit conditions. The command exits with code 2 for either.
var (
	errRecordsFailed = errors.New("some records could not be scored")
	errRegression    = errors.New("statistics regressed against the baseline")
)

var batchCmd = &cobra.Command{
	Use:   "batch <paths...>",
	Short: "Score every evaluation in JSON, YAML or CSV files",
	Long: `Score every record found in the given inputs. An input is a file, a
directory (searched for .json, .yaml, .yml and .csv files) or a glob such as
"evals/**/*.json".

Records are scored in parallel and reported in input order. A record that
cannot be scored is reported without stopping the batch.

A JSON or YAML file holds a list of records, each an object with the answers
q1 to q10 and any other fields, which are carried through as metadata. A CSV
file has a header row naming the columns.

Use --stats for summary statistics and --baseline to compare them with a
previous run; --save-baseline writes the current statistics as the baseline.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		err := runBatch(ctx, cmd.OutOrStdout(), args)
		switch {
		case errors.Is(err, errRecordsFailed), errors.Is(err, errRegression):
			fail(cmd, err, 2)
		case err != nil:
			fail(cmd, err, 1)
		}
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	flags := batchCmd.Flags()
	flags.BoolVar(&showStats, "stats", false, "Print summary statistics over the scored records")
	flags.StringVar(&statsOutput, "stats-output", "", "Write the statistics to a JSON or YAML file")
	flags.String("db", "", "Record the run in a SQLite database")
	flags.StringVar(&baselinePath, "baseline", "", "Compare the statistics with a baseline file")
	flags.BoolVar(&saveBaseline, "save-baseline", false, "Write the statistics to the --baseline file instead of comparing")
	flags.Bool("fail-on-error", false, "Exit with code 2 when any record or file fails")
	flags.BoolVar(&failOnRegression, "fail-on-regression", false, "Exit with code 2 when the baseline comparison finds a regression")
	flags.Float64("tolerance", baseline.DefaultTolerance, "Change tolerated before a baseline metric counts as a regression")
	flags.String("input-format", "", "Read every input in this format (json|yaml|csv)")
	flags.Bool("follow-symlinks", false, "Follow symlinks when expanding directories and globs")

	_ = viper.BindPFlag("db", flags.Lookup("db"))
	_ = viper.BindPFlag("failOnError", flags.Lookup("fail-on-error"))
	_ = viper.BindPFlag("tolerance", flags.Lookup("tolerance"))
	_ = viper.BindPFlag("inputFormat", flags.Lookup("input-format"))
	_ = viper.BindPFlag("followSymlinks", flags.Lookup("follow-symlinks"))
}

func runBatch(ctx context.Context, w io.Writer, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if saveBaseline && baselinePath == "" {
		return errors.New("--save-baseline needs --baseline <file>")
	}

	files, err := discoverInputs(cfg, args)
	if err != nil {
		return err
	}

	loader, err := batch.NewLoader()
	if err != nil {
		return err
	}
	items, fileErrs := batch.LoadAll(loader, files, logger)

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}
	runner := batch.NewRunner(cfg.Lang(), cfg.Concurrency,
		batch.WithLogger(logger),
		batch.WithMetrics(recorder))

	summary, err := runner.Run(ctx, items)
	if err != nil {
		return err
	}
	summary.FileErrors = fileErrs

	report := output.NewBatchReport(summary)
	stats := batch.ComputeStatistics(summary.Results())
	if showStats {
		report.Stats = &stats
	}

	sources := make([]string, len(files))
	for i, f := range files {
		sources[i] = f.RelPath
	}
	if baselinePath != "" && !saveBaseline {
		b, err := baseline.LoadBaseline(baselinePath)
		if err != nil {
			return err
		}
		report.Comparison = b.Compare(stats, sources, cfg.Tolerance)
	}

	if err := outputters.NewOutputter(cfg, w).Format(report, cfg.Format); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}

	if statsOutput != "" {
		if err := writeStatistics(statsOutput, stats); err != nil {
			return err
		}
	}
	if saveBaseline {
		b := baseline.CreateBaseline(summary.RunID, stats, sources)
		if err := b.SaveBaseline(baselinePath); err != nil {
			return fmt.Errorf("failed to save baseline: %w", err)
		}
		logger.Info("baseline saved", zap.String("path", baselinePath), zap.Int("n", stats.N))
	}
	if cfg.DB != "" {
		if err := recordRun(ctx, cfg.DB, summary, logger); err != nil {
			return err
		}
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}

	if cfg.FailOnError && summary.HasFailures() {
		return fmt.Errorf("%w: %d of %d records failed, %d files unreadable",
			errRecordsFailed, summary.Failed, summary.Total, len(summary.FileErrors))
	}
	if failOnRegression && report.Comparison != nil && report.Comparison.HasRegressions() {
		return fmt.Errorf("%w: %d metrics", errRegression, report.Comparison.Regressions)
	}
	return nil
}

// discoverInputs expands the command-line inputs into files.
func discoverInputs(cfg *config.Config, args []string) ([]discovery.File, error) {
	forced := discovery.FormatUnknown
	if cfg.InputFormat != "" {
		var err error
		if forced, err = discovery.ParseFormat(cfg.InputFormat); err != nil {
			return nil, err
		}
	}
	files, err := discovery.NewFileDiscovery(cfg.FollowSymlinks, forced).Discover(args)
	if err != nil {
		return nil, fmt.Errorf("error discovering inputs: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files found")
	}
	return files, nil
}

// writeStatistics writes stats as YAML for .yaml/.yml paths, JSON otherwise.
func writeStatistics(path string, stats batch.Statistics) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(stats)
	default:
		data, err = json.MarshalIndent(stats, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("error marshaling statistics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing statistics to %s: %w", path, err)
	}
	return nil
}

// recordRun stores the run in the history database.
func recordRun(ctx context.Context, path string, summary *batch.Summary, logger *zap.Logger) error {
	st, err := store.Open(path, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	return st.SaveRun(ctx, summary)
}

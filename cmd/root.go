package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dotcommander/shs/internal/config"
	"github.com/dotcommander/shs/internal/logging"
)

var (
	quiet        bool
	verbose      bool
	outputFormat string
	outputFile   string
	language     string
	concurrency  int
	logLevel     string
	logFormat    string
	metricsFile  string
)

// exitFunc is swapped in tests.
var exitFunc = os.Exit

var rootCmd = &cobra.Command{
	Use:   "shs",
	Short: "System Hallucination Scale - score LLM hallucination questionnaires",
	Long: `shs scores answers to the System Hallucination Scale, a ten question
questionnaire about hallucinations in LLM output. Each answer is an integer
from -2 (strongly disagree) to +2 (strongly agree).

Questions are grouped into five pairs, one per dimension. Every pair yields a
score in [-1, 1] (higher means fewer hallucinations) and a consistency value
that shows whether the two answers contradict each other.

Use "shs score" for a single evaluation and "shs batch" for files of them.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only print failures")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Show question texts and debug logs")
	flags.StringVarP(&outputFormat, "format", "f", "console", "Output format (console|compact|json|csv|markdown|yaml)")
	flags.StringVarP(&outputFile, "output", "o", "", "Write the report to a file instead of stdout")
	flags.StringVarP(&language, "lang", "l", "en", "Display language (en|de|fr)")
	flags.IntVar(&concurrency, "concurrency", 10, "Number of records scored in parallel")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	flags.StringVar(&logFormat, "log-format", "console", "Log format (console|json)")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format")

	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("language", flags.Lookup("lang"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("logLevel", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logFormat", flags.Lookup("log-format"))
	_ = viper.BindPFlag("metricsFile", flags.Lookup("metrics-file"))
}

// loadConfig loads the configuration and builds the logger for a command.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}
	logger, err := logging.New(cfg.EffectiveLogLevel(), cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating logger: %w", err)
	}
	return cfg, logger, nil
}

// fail prints err and exits with code.
func fail(cmd *cobra.Command, err error, code int) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitFunc(code)
}

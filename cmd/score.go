package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/discovery"
	"github.com/dotcommander/shs/internal/output"
	"github.com/dotcommander/shs/internal/outputters"
	"github.com/dotcommander/shs/internal/shs"
)

var (
	scoreSet         []string
	scoreFile        string
	scoreInputFormat string
)

var scoreCmd = &cobra.Command{
	Use:   "score [q1 ... q10]",
	Short: "Score a single evaluation",
	Long: `Score one set of ten answers. The answers can be given as ten positional
values in question order, as --set q1=2 --set q2=-1 ... pairs, or as a file
holding exactly one record (use "-" for stdin). Flags go before the values;
start with -- when the first answer is negative.

Examples:
  shs score 2 -2 1 -1 0 0 1 -1 2 -2
  shs score --set q1=2 --set q2=-2 ... --set q10=-2
  shs score --lang de -- -1 2 0 0 1 -1 2 -2 1 1
  shs score --file answers.json`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScore(cmd.InOrStdin(), cmd.OutOrStdout(), args); err != nil {
			fail(cmd, err, 1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringArrayVar(&scoreSet, "set", nil, "Answer as qN=value (repeatable)")
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "Read one record from a JSON, YAML or CSV file")
	scoreCmd.Flags().StringVar(&scoreInputFormat, "input-format", "", "Format of --file when it cannot be detected (json|yaml|csv)")
	// flags must precede the values so that -2 after 2 is not read as a flag
	scoreCmd.Flags().SetInterspersed(false)
}

func runScore(in io.Reader, w io.Writer, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sources := 0
	for _, given := range []bool{len(args) > 0, len(scoreSet) > 0, scoreFile != ""} {
		if given {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("give the answers either as ten values, with --set or with --file")
	}

	var res shs.Result
	switch {
	case len(args) > 0:
		values, err := parseValues(args)
		if err != nil {
			return err
		}
		res, err = shs.CalculateList(values, cfg.Lang())
		if err != nil {
			return err
		}
	case len(scoreSet) > 0:
		responses, err := parseAssignments(scoreSet)
		if err != nil {
			return err
		}
		res, err = shs.CalculateMap(responses, cfg.Lang())
		if err != nil {
			return err
		}
	default:
		inputFormat := scoreInputFormat
		if inputFormat == "" {
			inputFormat = cfg.InputFormat
		}
		responses, err := readSingleRecord(in, scoreFile, inputFormat)
		if err != nil {
			return err
		}
		res, err = shs.CalculateMap(responses, cfg.Lang())
		if err != nil {
			return err
		}
	}

	logger.Debug("scored evaluation")
	report := output.NewSingleReport(res)
	if err := outputters.NewOutputter(cfg, w).Format(report, cfg.Format); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	return nil
}

// parseValues converts positional answers to integers.
func parseValues(args []string) ([]int, error) {
	values := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(strings.TrimPrefix(a, "+"))
		if err != nil {
			return nil, fmt.Errorf("%w: answer %d (%q) is not an integer", shs.ErrOutOfRange, i+1, a)
		}
		values[i] = v
	}
	return values, nil
}

// parseAssignments converts qN=value pairs into a response map. A question
// given twice is an error.
func parseAssignments(pairs []string) (map[string]int, error) {
	responses := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected qN=value", pair)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if _, dup := responses[key]; dup {
			return nil, fmt.Errorf("invalid --set %q: %s given twice", pair, key)
		}
		v, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(raw), "+"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s (%q) is not an integer", shs.ErrOutOfRange, key, raw)
		}
		responses[key] = v
	}
	return responses, nil
}

// readSingleRecord loads path (or stdin for "-") and returns the responses
// of its only record.
func readSingleRecord(in io.Reader, path, inputFormat string) (map[string]int, error) {
	var (
		data   []byte
		format discovery.Format
		err    error
	)
	if inputFormat != "" {
		if format, err = discovery.ParseFormat(inputFormat); err != nil {
			return nil, err
		}
	}

	if path == "-" {
		if data, err = io.ReadAll(in); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if format == discovery.FormatUnknown {
			format = discovery.FormatJSON
		}
	} else {
		absPath, err := discovery.ValidateFilePath(path)
		if err != nil {
			return nil, err
		}
		if format == discovery.FormatUnknown {
			if format, err = discovery.DetectFormat(absPath); err != nil {
				return nil, err
			}
		}
		if data, err = os.ReadFile(absPath); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	loader, err := batch.NewLoader()
	if err != nil {
		return nil, err
	}
	items, err := loader.Load(path, format, data)
	if err != nil {
		return nil, err
	}
	if len(items) != 1 {
		return nil, fmt.Errorf("%s holds %d records; use \"shs batch\" for more than one", path, len(items))
	}
	if items[0].Err != nil {
		return nil, items[0].Err
	}
	return items[0].Responses, nil
}

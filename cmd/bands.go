package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/shs"
)

var bandsCmd = &cobra.Command{
	Use:   "bands",
	Short: "Show the classification bands",
	Long: `Show the eleven bands the overall score is classified into. Each band is
2/11 wide and includes its lower edge; the top band also includes +1.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBands(cmd.OutOrStdout()); err != nil {
			fail(cmd, err, 1)
		}
	},
}

func init() {
	rootCmd.AddCommand(bandsCmd)
}

// bandRow is a band with its display label.
type bandRow struct {
	shs.Band `yaml:",inline"`
	Label    string `json:"label" yaml:"label"`
}

func runBands(w io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	rows := make([]bandRow, 0, shs.NumBands)
	for _, b := range shs.Bands() {
		rows = append(rows, bandRow{Band: b, Label: locale.BandLabel(cfg.Lang(), b.ID)})
	}

	switch cfg.Format {
	case "json":
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "yaml":
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("error marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ID", "From", "To", "Label")
	for _, r := range rows {
		upper := "<" + formatEdge(r.Upper)
		if r.Index == shs.NumBands-1 {
			upper = "≤" + formatEdge(r.Upper)
		}
		t.Row(strconv.Itoa(r.Index), r.ID, "≥"+formatEdge(r.Lower), upper, r.Label)
	}
	_, err = fmt.Fprintln(w, t.String())
	return err
}

func formatEdge(v float64) string {
	return fmt.Sprintf("%+.4f", v)
}

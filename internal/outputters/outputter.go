// Package outputters picks a formatter for the configured output format and
// runs it over a report.
package outputters

import (
	"fmt"
	"io"
	"time"

	"github.com/dotcommander/shs/internal/config"
	"github.com/dotcommander/shs/internal/output"
)

// Formatter renders a report.
type Formatter interface {
	Format(report *output.Report) error
}

// FormatterFactory creates the formatter for a format name.
type FormatterFactory interface {
	CreateFormatter(format string) (Formatter, error)
}

// DefaultFormatterFactory builds the formatters of the output package from
// the configuration.
type DefaultFormatterFactory struct {
	cfg *config.Config
	w   io.Writer
}

// NewDefaultFormatterFactory creates a factory whose formatters write to w
// unless cfg.Output names a file.
func NewDefaultFormatterFactory(cfg *config.Config, w io.Writer) *DefaultFormatterFactory {
	return &DefaultFormatterFactory{cfg: cfg, w: w}
}

// CreateFormatter implements FormatterFactory.
func (f *DefaultFormatterFactory) CreateFormatter(format string) (Formatter, error) {
	switch format {
	case "console":
		return output.NewConsoleFormatter(f.w, f.cfg.Quiet, f.cfg.Verbose), nil
	case "compact":
		return output.NewCompactFormatter(f.w, f.cfg.Quiet), nil
	case "json":
		return output.NewJSONFormatter(f.w, true, f.cfg.Output), nil
	case "csv":
		return output.NewCSVFormatter(f.w, f.cfg.Output), nil
	case "markdown":
		return output.NewMarkdownFormatter(f.w, f.cfg.Verbose, f.cfg.Output), nil
	case "yaml":
		return output.NewYAMLFormatter(f.w, f.cfg.Output), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Outputter handles output formatting
type Outputter struct {
	config  *config.Config
	factory FormatterFactory
}

// NewOutputter creates a new Outputter writing to w
func NewOutputter(cfg *config.Config, w io.Writer) *Outputter {
	return &Outputter{
		config:  cfg,
		factory: NewDefaultFormatterFactory(cfg, w),
	}
}

// NewOutputterWithFactory creates an Outputter with a custom factory
func NewOutputterWithFactory(cfg *config.Config, factory FormatterFactory) *Outputter {
	return &Outputter{
		config:  cfg,
		factory: factory,
	}
}

// Format renders the report in the given format. An empty format means the
// configured one.
func (o *Outputter) Format(report *output.Report, format string) error {
	if report.StartTime.IsZero() {
		report.StartTime = time.Now()
	}
	if report.Language == "" {
		report.Language = o.config.Lang()
	}
	if format == "" {
		format = o.config.Format
	}

	formatter, err := o.factory.CreateFormatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(report)
}

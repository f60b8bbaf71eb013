package outputters

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/dotcommander/shs/internal/config"
	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/output"
	"github.com/dotcommander/shs/internal/shs"
)

// =============================================================================
// Mock Formatter for testing
// =============================================================================

type mockFormatter struct {
	formatCalled bool
	formatError  error
	report       *output.Report
}

func (m *mockFormatter) Format(report *output.Report) error {
	m.formatCalled = true
	m.report = report
	return m.formatError
}

// =============================================================================
// Mock FormatterFactory for testing
// =============================================================================

type mockFormatterFactory struct {
	createCalled    bool
	requestedFormat string
	formatter       Formatter
	createError     error
}

func (m *mockFormatterFactory) CreateFormatter(format string) (Formatter, error) {
	m.createCalled = true
	m.requestedFormat = format
	if m.createError != nil {
		return nil, m.createError
	}
	return m.formatter, nil
}

func sampleReport(t *testing.T) *output.Report {
	t.Helper()
	res, err := shs.CalculateList([]int{2, -2, 1, -1, 0, 0, 1, -1, 2, -2}, locale.English)
	if err != nil {
		t.Fatalf("CalculateList() error = %v", err)
	}
	return output.NewSingleReport(res)
}

// =============================================================================
// Test constructors
// =============================================================================

func TestNewOutputter(t *testing.T) {
	cfg := &config.Config{Format: "console", Language: "en"}

	outputter := NewOutputter(cfg, &bytes.Buffer{})
	if outputter == nil {
		t.Fatal("NewOutputter() returned nil")
	}
	if outputter.config != cfg {
		t.Errorf("NewOutputter() config = %v, want %v", outputter.config, cfg)
	}
	if _, ok := outputter.factory.(*DefaultFormatterFactory); !ok {
		t.Errorf("NewOutputter() factory type = %T, want *DefaultFormatterFactory", outputter.factory)
	}
}

func TestNewOutputterWithFactory(t *testing.T) {
	cfg := &config.Config{Format: "json"}
	mockFactory := &mockFormatterFactory{}

	outputter := NewOutputterWithFactory(cfg, mockFactory)
	if outputter.factory != mockFactory {
		t.Errorf("NewOutputterWithFactory() factory = %v, want %v", outputter.factory, mockFactory)
	}
}

// =============================================================================
// Test Format method
// =============================================================================

func TestOutputter_Format_Success(t *testing.T) {
	cfg := &config.Config{Format: "console", Language: "en"}
	mockForm := &mockFormatter{}
	mockFactory := &mockFormatterFactory{formatter: mockForm}
	outputter := NewOutputterWithFactory(cfg, mockFactory)

	report := sampleReport(t)
	if err := outputter.Format(report, "csv"); err != nil {
		t.Errorf("Format() error = %v, want nil", err)
	}
	if mockFactory.requestedFormat != "csv" {
		t.Errorf("Format() requested format = %s, want 'csv'", mockFactory.requestedFormat)
	}
	if !mockForm.formatCalled || mockForm.report != report {
		t.Error("Format() did not pass the report to the formatter")
	}
}

func TestOutputter_Format_DefaultsFromConfig(t *testing.T) {
	cfg := &config.Config{Format: "yaml", Language: "fr"}
	mockForm := &mockFormatter{}
	mockFactory := &mockFormatterFactory{formatter: mockForm}
	outputter := NewOutputterWithFactory(cfg, mockFactory)

	report := &output.Report{}
	before := time.Now()
	if err := outputter.Format(report, ""); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if mockFactory.requestedFormat != "yaml" {
		t.Errorf("requested format = %q, want the configured %q", mockFactory.requestedFormat, "yaml")
	}
	if report.StartTime.Before(before) {
		t.Errorf("StartTime = %v, want a time after %v", report.StartTime, before)
	}
	if report.Language != locale.French {
		t.Errorf("Language = %q, want %q", report.Language, locale.French)
	}
}

func TestOutputter_Format_PreservesExistingStartTime(t *testing.T) {
	cfg := &config.Config{Language: "en"}
	mockFactory := &mockFormatterFactory{formatter: &mockFormatter{}}
	outputter := NewOutputterWithFactory(cfg, mockFactory)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	report := &output.Report{StartTime: start}
	if err := outputter.Format(report, "json"); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !report.StartTime.Equal(start) {
		t.Errorf("StartTime = %v, want %v", report.StartTime, start)
	}
}

func TestOutputter_Format_CreateFormatterError(t *testing.T) {
	wantErr := errors.New("no formatter")
	mockFactory := &mockFormatterFactory{createError: wantErr}
	outputter := NewOutputterWithFactory(&config.Config{}, mockFactory)

	if err := outputter.Format(sampleReport(t), "xml"); !errors.Is(err, wantErr) {
		t.Errorf("Format() error = %v, want %v", err, wantErr)
	}
}

func TestOutputter_Format_FormatterError(t *testing.T) {
	wantErr := errors.New("write failed")
	mockFactory := &mockFormatterFactory{formatter: &mockFormatter{formatError: wantErr}}
	outputter := NewOutputterWithFactory(&config.Config{}, mockFactory)

	if err := outputter.Format(sampleReport(t), "json"); !errors.Is(err, wantErr) {
		t.Errorf("Format() error = %v, want %v", err, wantErr)
	}
}

// =============================================================================
// Test DefaultFormatterFactory
// =============================================================================

func TestDefaultFormatterFactory_CreateFormatter(t *testing.T) {
	factory := NewDefaultFormatterFactory(&config.Config{}, &bytes.Buffer{})

	for _, format := range config.Formats {
		t.Run(format, func(t *testing.T) {
			formatter, err := factory.CreateFormatter(format)
			if err != nil {
				t.Fatalf("CreateFormatter(%q) error = %v", format, err)
			}
			if formatter == nil {
				t.Fatalf("CreateFormatter(%q) returned nil formatter", format)
			}
		})
	}
}

func TestDefaultFormatterFactory_CreateFormatter_Unsupported(t *testing.T) {
	factory := NewDefaultFormatterFactory(&config.Config{}, &bytes.Buffer{})
	formatter, err := factory.CreateFormatter("xml")
	if err == nil {
		t.Error("CreateFormatter('xml') error = nil, want error")
	}
	if formatter != nil {
		t.Errorf("CreateFormatter('xml') formatter = %v, want nil", formatter)
	}
}

func TestOutputter_Format_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	outputter := NewOutputter(&config.Config{Language: "en"}, &buf)
	if err := outputter.Format(sampleReport(t), "csv"); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("evaluation_id,overall_score,")) {
		t.Errorf("unexpected CSV output: %q", buf.String())
	}
}

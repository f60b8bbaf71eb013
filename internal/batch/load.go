package batch

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/shs/internal/cue"
	"github.com/dotcommander/shs/internal/discovery"
	"github.com/dotcommander/shs/internal/shs"
)

// Item is one evaluation read from an input file. Metadata holds every
// non-question field verbatim; the engine never sees it.
type Item struct {
	Source    string         `json:"source"`
	Index     int            `json:"index"`
	Responses map[string]int `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// Err is set when the record could not be turned into responses.
	// Such items fail without reaching the engine.
	Err error `json:"-"`
}

// ValueTypeError reports a question value that is not an integer.
// It unwraps to shs.ErrOutOfRange.
type ValueTypeError struct {
	ID  shs.QuestionID
	Raw any
}

func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("%v: %s is not an integer (%v)", shs.ErrOutOfRange, e.ID, e.Raw)
}

func (e *ValueTypeError) Unwrap() error { return shs.ErrOutOfRange }

// RangeError reports an integer answer too large to be held as an int.
// Raw keeps the value as decoded. It unwraps to shs.ErrOutOfRange.
type RangeError struct {
	ID  shs.QuestionID
	Raw any
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %s=%v (want %d..%d)", shs.ErrOutOfRange, e.ID, e.Raw, shs.MinResponse, shs.MaxResponse)
}

func (e *RangeError) Unwrap() error { return shs.ErrOutOfRange }

// Loader reads input files into Items. It is not safe for concurrent use.
type Loader struct {
	validator *cue.Validator
}

// NewLoader creates a Loader with the record schema compiled.
func NewLoader() (*Loader, error) {
	v := cue.NewValidator()
	if err := v.LoadSchemas(); err != nil {
		return nil, fmt.Errorf("load record schema: %w", err)
	}
	return &Loader{validator: v}, nil
}

// LoadFile reads every record of f. A file that cannot be parsed at all is
// an error; a record that is malformed becomes an Item with Err set.
func (l *Loader) LoadFile(f discovery.File) ([]Item, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.RelPath, err)
	}
	return l.Load(f.RelPath, f.Format, data)
}

// Load parses data in the given format. source labels the resulting items.
func (l *Loader) Load(source string, format discovery.Format, data []byte) ([]Item, error) {
	var (
		records []any
		err     error
	)
	switch format {
	case discovery.FormatJSON:
		records, err = decodeJSON(data)
	case discovery.FormatYAML:
		records, err = decodeYAML(data)
	case discovery.FormatCSV:
		records, err = decodeCSV(data)
	default:
		return nil, fmt.Errorf("%s: unsupported input format %s", source, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	items := make([]Item, 0, len(records))
	for i, rec := range records {
		items = append(items, l.item(source, i, rec))
	}
	return items, nil
}

func (l *Loader) item(source string, index int, rec any) Item {
	it := Item{Source: source, Index: index}

	raw, ok := rec.(map[string]any)
	if !ok {
		it.Err = fmt.Errorf("record is %s, not an object", kindOf(rec))
		return it
	}

	if errs := overflowErrors(raw); len(errs) > 0 {
		it.Err = errors.Join(errs...)
		return it
	}

	issues, err := l.validator.ValidateRecord(raw)
	if err != nil {
		it.Err = fmt.Errorf("validate record: %w", err)
		return it
	}
	if len(issues) > 0 {
		errs := make([]error, 0, len(issues))
		for _, issue := range issues {
			if issue.Field == "" {
				errs = append(errs, issue)
				continue
			}
			errs = append(errs, &ValueTypeError{ID: shs.QuestionID(issue.Field), Raw: issue.Value})
		}
		it.Err = errors.Join(errs...)
		return it
	}

	it.Responses, it.Metadata, it.Err = split(raw)
	return it
}

// overflowErrors reports question values that are integers but do not fit
// in an int, in question order.
func overflowErrors(raw map[string]any) []error {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		if looksLikeQuestion(key) {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
	})

	var errs []error
	for _, key := range keys {
		if overflows(raw[key]) {
			errs = append(errs, &RangeError{ID: shs.QuestionID(key), Raw: raw[key]})
		}
	}
	return errs
}

func overflows(v any) bool {
	switch n := v.(type) {
	case uint64:
		return n > math.MaxInt
	case *big.Int:
		return !n.IsInt64() || n.Int64() > math.MaxInt || n.Int64() < math.MinInt
	}
	return false
}

// split separates question answers from passthrough metadata. Keys shaped
// like a question id (q followed by digits) are treated as answers so that
// q0 or q11 reach the engine and fail as unknown questions.
func split(raw map[string]any) (map[string]int, map[string]any, error) {
	responses := make(map[string]int, shs.NumQuestions)
	var (
		metadata map[string]any
		errs     []error
	)
	for key, value := range raw {
		if looksLikeQuestion(key) {
			n, ok := toInt(value)
			if !ok {
				errs = append(errs, &ValueTypeError{ID: shs.QuestionID(key), Raw: value})
				continue
			}
			responses[key] = n
			continue
		}
		if metadata == nil {
			metadata = make(map[string]any)
		}
		metadata[key] = value
	}
	if len(errs) > 0 {
		return nil, metadata, errors.Join(errs...)
	}
	return responses, metadata, nil
}

func looksLikeQuestion(key string) bool {
	if len(key) < 2 || key[0] != 'q' {
		return false
	}
	for _, c := range key[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n), true
		}
	case uint64:
		if n <= math.MaxInt {
			return int(n), true
		}
	case float64:
		if n >= math.MinInt && n < math.MaxInt && n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a bool"
	case int, int64, uint64, float64, *big.Int:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// decodeJSON accepts an array of objects or a single object.
func decodeJSON(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON: trailing data after top-level value")
	}
	return asRecords(normalizeNumbers(doc))
}

// decodeYAML accepts a sequence of mappings or a single mapping.
func decodeYAML(data []byte) ([]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return asRecords(doc)
}

func asRecords(doc any) ([]any, error) {
	switch d := doc.(type) {
	case []any:
		return d, nil
	case map[string]any:
		return []any{d}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("top-level value is %s; expected a list of records", kindOf(doc))
	}
}

// normalizeNumbers turns json.Number into int64 when integral and float64
// otherwise, so the schema sees the same kinds the YAML decoder produces.
// Integer literals beyond int64 become *big.Int.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if n, ok := bigInt(x.String()); ok {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeNumbers(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = normalizeNumbers(val)
		}
		return x
	default:
		return v
	}
}

// bigInt parses a plain decimal integer literal.
func bigInt(s string) (*big.Int, bool) {
	if strings.ContainsAny(s, ".eE") {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

// decodeCSV reads a header row followed by one record per row. Question
// cells that parse as integers become numbers; empty or absent question
// cells are dropped so they surface as missing questions. Other columns
// stay strings. Rows may be shorter or longer than the header.
func decodeCSV(data []byte) ([]any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []any
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV: %w", err)
		}

		rec := make(map[string]any, len(header))
		for i, col := range header {
			var cell string
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if !looksLikeQuestion(col) {
				rec[col] = cell
				continue
			}
			if cell == "" {
				continue
			}
			if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
				rec[col] = n
			} else if b, ok := bigInt(cell); ok {
				rec[col] = b
			} else {
				rec[col] = cell
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

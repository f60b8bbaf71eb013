package cue

import (
	"embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/dotcommander/shs/internal/shs"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Severity values for ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError describes one field of a raw record that does not match
// the schema.
type ValidationError struct {
	Field    string
	Value    any
	Message  string
	Severity string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks raw batch records against the embedded CUE schemas.
// A cue.Context is not safe for concurrent use, so neither is a Validator.
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
}

// LoadSchemas compiles every embedded .cue file. The schema name is the base
// file name (record.cue -> record).
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("could not read embedded schemas: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}

		inst := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if err := inst.Err(); err != nil {
			return fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		v.schemas[strings.TrimSuffix(entry.Name(), ".cue")] = inst
	}

	if len(v.schemas) == 0 {
		return fmt.Errorf("no CUE schemas loaded")
	}
	return nil
}

// ValidateRecord checks the question fields present in a raw record.
// Passthrough metadata is accepted as-is. Missing questions are not
// reported here.
func (v *Validator) ValidateRecord(data map[string]any) ([]ValidationError, error) {
	schema, ok := v.schemas["record"]
	if !ok {
		return nil, fmt.Errorf("record schema not loaded")
	}

	errs, err := v.validateAgainstSchema(schema, "#Record", data)
	if err != nil || len(errs) == 0 {
		return errs, err
	}

	// The record as a whole failed; attribute the failure to fields.
	response := schema.LookupPath(cue.ParsePath("#Response"))
	var fieldErrs []ValidationError
	for _, key := range sortedQuestionKeys(data) {
		value := v.ctx.Encode(data[key])
		if value.Err() != nil || response.Unify(value).Validate(cue.Concrete(true)) != nil {
			fieldErrs = append(fieldErrs, ValidationError{
				Field:    key,
				Value:    data[key],
				Message:  fmt.Sprintf("expected an integer, got %s", describe(data[key])),
				Severity: SeverityError,
			})
		}
	}
	if len(fieldErrs) == 0 {
		return errs, nil
	}
	return fieldErrs, nil
}

// validateAgainstSchema unifies data with the named definition and checks
// that the result is concrete.
func (v *Validator) validateAgainstSchema(schema cue.Value, definition string, data map[string]any) ([]ValidationError, error) {
	dataValue := v.ctx.Encode(data)
	if err := dataValue.Err(); err != nil {
		return nil, fmt.Errorf("error encoding data: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return nil, fmt.Errorf("schema definition %s not found", definition)
	}

	unified := def.Unify(dataValue)
	if err := unified.Err(); err != nil {
		return extractErrorsFromCUE(err), nil
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return extractErrorsFromCUE(err), nil
	}
	return nil, nil
}

func extractErrorsFromCUE(err error) []ValidationError {
	return []ValidationError{{
		Message:  fmt.Sprintf("schema validation failed: %v", err),
		Severity: SeverityError,
	}}
}

func sortedQuestionKeys(data map[string]any) []string {
	var keys []string
	for key := range data {
		if shs.IsQuestionID(key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return questionOrder(keys[i]) < questionOrder(keys[j])
	})
	return keys
}

func questionOrder(key string) int {
	for i, id := range shs.QuestionIDs() {
		if string(id) == key {
			return i
		}
	}
	return len(shs.QuestionIDs())
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", x)
	case float32, float64:
		return fmt.Sprintf("number %v", x)
	case bool:
		return fmt.Sprintf("bool %v", x)
	default:
		return fmt.Sprintf("%T", v)
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/shs/internal/output"
	"github.com/dotcommander/shs/internal/shs"
)

var mixedArgs = []string{"2", "-2", "1", "-1", "0", "0", "1", "-1", "2", "-2"}

func scoreJSON(t *testing.T, out *bytes.Buffer) output.JSONReport {
	t.Helper()
	var report output.JSONReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())
	require.Len(t, report.Results, 1)
	return report
}

func TestRunScore_Positional(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runScore(strings.NewReader(""), &out, mixedArgs))

	assert.Contains(t, out.String(), "Overall score: 0.60  Very low hallucination")
	assert.Contains(t, out.String(), "The answers are highly consistent.")
}

func TestRunScore_PlusSign(t *testing.T) {
	setFlag(t, rootCmd.PersistentFlags(), "format", "json")
	args := []string{"+2", "-2", "+2", "-2", "+2", "-2", "+2", "-2", "+2", "-2"}

	var out bytes.Buffer
	require.NoError(t, runScore(strings.NewReader(""), &out, args))
	assert.Equal(t, 1.0, scoreJSON(t, &out).Results[0].OverallScore)
}

func TestRunScore_SetAllQuestions(t *testing.T) {
	setFlag(t, rootCmd.PersistentFlags(), "format", "json")
	setFlag(t, rootCmd.PersistentFlags(), "lang", "de")
	pairs := []string{"q1=2", "q2=-2", "q3=1", "q4=-1", "q5=0", "q6=0", "q7=1", "q8=-1", "q9=2", "Q10=-2"}
	for _, p := range pairs {
		setFlag(t, scoreCmd.Flags(), "set", p)
	}

	var out bytes.Buffer
	require.NoError(t, runScore(strings.NewReader(""), &out, nil))
	report := scoreJSON(t, &out)
	assert.Equal(t, "de", report.Header.Language)
	assert.Equal(t, 0.6, report.Results[0].OverallScore)
	assert.Equal(t, "Faktische Genauigkeit", report.Results[0].Dimensions[0].DimensionLabel)
}

func TestRunScore_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.yaml", `
q1: 2
q2: -2
q3: 1
q4: -1
q5: 0
q6: 0
q7: 1
q8: -1
q9: 2
q10: -2
model: gpt
`)
	setFlag(t, rootCmd.PersistentFlags(), "format", "json")
	setFlag(t, scoreCmd.Flags(), "file", path)

	var out bytes.Buffer
	require.NoError(t, runScore(strings.NewReader(""), &out, nil))
	assert.Equal(t, "very_low", scoreJSON(t, &out).Results[0].OverallBand)
}

func TestRunScore_Stdin(t *testing.T) {
	setFlag(t, rootCmd.PersistentFlags(), "format", "csv")
	setFlag(t, scoreCmd.Flags(), "file", "-")

	in := strings.NewReader(`{"q1":2,"q2":-2,"q3":2,"q4":-2,"q5":2,"q6":-2,"q7":2,"q8":-2,"q9":2,"q10":-2}`)
	var out bytes.Buffer
	require.NoError(t, runScore(in, &out, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "0,1,0,"), lines[1])
}

func TestRunScore_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		set     []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no answers",
			wantMsg: "either as ten values",
		},
		{
			name:    "two sources",
			args:    mixedArgs,
			set:     []string{"q1=2"},
			wantMsg: "either as ten values",
		},
		{
			name:    "too few values",
			args:    []string{"1", "2"},
			wantErr: shs.ErrWrongLength,
		},
		{
			name:    "out of range",
			args:    []string{"3", "0", "0", "0", "0", "0", "0", "0", "0", "0"},
			wantErr: shs.ErrOutOfRange,
		},
		{
			name:    "not an integer",
			args:    []string{"1.5", "0", "0", "0", "0", "0", "0", "0", "0", "0"},
			wantErr: shs.ErrOutOfRange,
		},
		{
			name:    "missing question",
			set:     []string{"q1=2"},
			wantErr: shs.ErrMissingQuestion,
		},
		{
			name:    "duplicate question",
			set:     []string{"q1=2", "q1=1"},
			wantMsg: "given twice",
		},
		{
			name:    "malformed pair",
			set:     []string{"q1"},
			wantMsg: "expected qN=value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range tt.set {
				setFlag(t, scoreCmd.Flags(), "set", p)
			}
			var out bytes.Buffer
			err := runScore(strings.NewReader(""), &out, tt.args)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error %v is not %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Empty(t, out.String())
		})
	}
}

func TestRunScore_FileWithSeveralRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "two.json", `[{"q1":1},{"q1":2}]`)
	setFlag(t, scoreCmd.Flags(), "file", path)

	err := runScore(strings.NewReader(""), &bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holds 2 records")
}

func TestScoreCmd_ExitCode(t *testing.T) {
	code := captureExit(t)
	var stderr bytes.Buffer
	scoreCmd.SetErr(&stderr)
	t.Cleanup(func() { scoreCmd.SetErr(nil) })

	scoreCmd.Run(scoreCmd, []string{"1"})
	assert.Equal(t, 1, *code)
	assert.Contains(t, stderr.String(), "Error: ")
}

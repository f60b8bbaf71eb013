package baseline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dotcommander/shs/internal/batch"
)

// DefaultTolerance is the score drop tolerated before a metric counts as a
// regression.
const DefaultTolerance = 0.05

// Baseline is a saved statistics snapshot of an earlier batch run.
type Baseline struct {
	Version     string           `json:"version"`
	CreatedAt   string           `json:"created_at"`
	RunID       string           `json:"run_id,omitempty"`
	Fingerprint string           `json:"inputs_fingerprint,omitempty"`
	Stats       batch.Statistics `json:"statistics"`
}

// CreateBaseline snapshots stats. sources are the input files of the run;
// their fingerprint lets Compare tell whether the same inputs were scored.
func CreateBaseline(runID string, stats batch.Statistics, sources []string) *Baseline {
	return &Baseline{
		Version:     "1.0",
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		RunID:       runID,
		Fingerprint: fingerprint(sources),
		Stats:       stats,
	}
}

// LoadBaseline loads a baseline from a JSON file
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}
	if b.Version == "" {
		return nil, fmt.Errorf("failed to parse baseline file: %s has no version", path)
	}
	return &b, nil
}

// SaveBaseline saves the baseline to a JSON file
func (b *Baseline) SaveBaseline(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}

	return nil
}

// Delta is the change of one metric against the baseline.
type Delta struct {
	Metric     string  `json:"metric" yaml:"metric"`
	Baseline   float64 `json:"baseline" yaml:"baseline"`
	Current    float64 `json:"current" yaml:"current"`
	Change     float64 `json:"change" yaml:"change"`
	Regression bool    `json:"regression" yaml:"regression"`
}

// Comparison is the result of comparing a run with a baseline.
type Comparison struct {
	Deltas      []Delta `json:"deltas" yaml:"deltas"`
	SameInputs  bool    `json:"same_inputs" yaml:"same_inputs"`
	BaselineN   int     `json:"baseline_n" yaml:"baseline_n"`
	CurrentN    int     `json:"current_n" yaml:"current_n"`
	Regressions int     `json:"regressions" yaml:"regressions"`
	Tolerance   float64 `json:"tolerance" yaml:"tolerance"`
}

// HasRegressions reports whether any metric moved the wrong way by more
// than the tolerance.
func (c *Comparison) HasRegressions() bool {
	return c.Regressions > 0
}

// Compare computes deltas for the overall mean score, the mean absolute
// overall consistency and every dimension mean. A lower score or a higher
// absolute consistency beyond tolerance is a regression. A negative
// tolerance means DefaultTolerance.
func (b *Baseline) Compare(current batch.Statistics, sources []string, tolerance float64) *Comparison {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	c := &Comparison{
		SameInputs: b.Fingerprint != "" && b.Fingerprint == fingerprint(sources),
		BaselineN:  b.Stats.N,
		CurrentN:   current.N,
		Tolerance:  tolerance,
	}

	add := func(metric string, was, now float64, lowerIsWorse bool) {
		d := Delta{Metric: metric, Baseline: was, Current: now, Change: now - was}
		if lowerIsWorse {
			d.Regression = d.Change < -tolerance
		} else {
			d.Regression = d.Change > tolerance
		}
		if d.Regression {
			c.Regressions++
		}
		c.Deltas = append(c.Deltas, d)
	}

	add("overall_score.mean", b.Stats.OverallScore.Mean, current.OverallScore.Mean, true)
	add("overall_abs_consistency.mean", b.Stats.OverallConsistency.Mean, current.OverallConsistency.Mean, false)

	was := make(map[string]batch.DimensionStats, len(b.Stats.Dimensions))
	for _, d := range b.Stats.Dimensions {
		was[d.Slug] = d
	}
	for _, d := range current.Dimensions {
		old, ok := was[d.Slug]
		if !ok {
			continue
		}
		add(d.Slug+".score.mean", old.Score.Mean, d.Score.Mean, true)
	}
	return c
}

// fingerprint hashes the sorted, de-duplicated input names.
func fingerprint(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	uniq := make(map[string]bool, len(sources))
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		if !uniq[s] {
			uniq[s] = true
			names = append(names, s)
		}
	}
	sort.Strings(names)

	hash := sha256.Sum256([]byte(strings.Join(names, "\n")))
	return fmt.Sprintf("%x", hash)
}

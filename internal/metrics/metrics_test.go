package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/shs"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	res, err := shs.CalculateList([]int{2, -2, 2, -2, 2, -2, 2, -2, 2, -2}, locale.English)
	require.NoError(t, err)

	r.ObserveEvaluation(res, nil)
	r.ObserveEvaluation(res, nil)
	r.ObserveEvaluation(shs.Result{}, errors.New("bad record"))
	r.ObserveRun(150 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.evaluations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.evaluations.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.bands.WithLabelValues("negligible")))

	count, err := testutil.GatherAndCount(r.Gatherer(), "shs_overall_score")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveEvaluation(shs.Result{}, errors.New("x"))

	path := filepath.Join(t.TempDir(), "shs.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `shs_evaluations_total{status="failed"} 1`)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveEvaluation(shs.Result{}, nil)
	r.ObserveRun(time.Second)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

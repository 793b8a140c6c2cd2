package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/planner"
)

type countingOptimizer struct {
	n atomic.Int32
}

func (o *countingOptimizer) Optimize() planner.Report {
	o.n.Add(1)
	return planner.Report{Blocks: 2}
}

func TestNew_RejectsBadSpecs(t *testing.T) {
	for _, spec := range []string{"", "   ", "every day", "61 * * * *"} {
		_, err := New(spec, time.UTC, &countingOptimizer{})
		assert.Error(t, err, spec)
	}
}

func TestNext(t *testing.T) {
	r, err := New("5 0 * * *", time.UTC, &countingOptimizer{})
	require.NoError(t, err)

	from := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 16, 0, 5, 0, 0, time.UTC), r.Next(from))

	seoul := time.FixedZone("KST", 9*60*60)
	r, err = New("@daily", seoul, &countingOptimizer{})
	require.NoError(t, err)
	// 08:00 UTC is 17:00 KST; the next local midnight is 15:00 UTC.
	assert.Equal(t, time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC), r.Next(from).UTC())
}

func TestRunNow(t *testing.T) {
	opt := &countingOptimizer{}
	r, err := New("@hourly", nil, opt)
	require.NoError(t, err)

	rep := r.RunNow()
	assert.Equal(t, 2, rep.Blocks)
	assert.Equal(t, int32(1), opt.n.Load())
}

func TestStartStop_Fires(t *testing.T) {
	opt := &countingOptimizer{}
	r, err := New("@every 1s", time.UTC, opt)
	require.NoError(t, err)

	r.Start()
	r.Start()
	require.Eventually(t, func() bool { return opt.n.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.Stop(ctx)
	r.Stop(ctx)

	n := opt.n.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, n, opt.n.Load(), "no runs after Stop")
}

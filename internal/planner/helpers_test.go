package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testToday is a Thursday.
const testToday = "2026-01-15"

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return d
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	require.NoError(t, err)
	return d
}

func testOptions() Options {
	o := DefaultOptions()
	o.Location = time.UTC
	return o
}

func newTestScheduler(t *testing.T, o Options) *Scheduler {
	t.Helper()
	now := at(t, testToday+" 07:30")
	return New(o, WithClock(FixedClock(now)), WithIDGenerator(&Counter{}))
}

func mustAdd(t *testing.T, s *Scheduler, in AddInput) int {
	t.Helper()
	id, err := s.Add(in)
	require.NoError(t, err)
	return id
}

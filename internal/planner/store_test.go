package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
)

func TestAdd_Validation(t *testing.T) {
	s := newTestScheduler(t, testOptions())

	tests := []struct {
		name string
		in   AddInput
		want error
	}{
		{name: "empty title", in: AddInput{Title: "  ", Deadline: testToday, Duration: 1}, want: ErrEmptyTitle},
		{name: "bad deadline", in: AddInput{Title: "x", Deadline: "2026-02-30", Duration: 1}, want: ErrInvalidDate},
		{name: "deadline format", in: AddInput{Title: "x", Deadline: "15/01/2026", Duration: 1}, want: ErrInvalidDate},
		{name: "bad fixed start", in: AddInput{Title: "x", Deadline: testToday, Duration: 1, FixedStart: "2026-01-15 25:00"}, want: ErrInvalidDateTime},
		{name: "zero duration", in: AddInput{Title: "x", Deadline: testToday}, want: ErrInvalidDuration},
		{name: "NaN duration", in: AddInput{Title: "x", Deadline: testToday, Duration: math.NaN(), FixedStart: "2026-01-16 10:00"}, want: ErrInvalidDuration},
		{name: "infinite duration", in: AddInput{Title: "x", Deadline: testToday, Duration: math.Inf(1)}, want: ErrInvalidDuration},
		{name: "duration overflows", in: AddInput{Title: "x", Deadline: testToday, Duration: 1e12, FixedStart: "2026-01-16 10:00"}, want: ErrInvalidDuration},
		{name: "priority too high", in: AddInput{Title: "x", Deadline: testToday, Duration: 1, Priority: 6}, want: ErrInvalidPriority},
		{name: "unknown repeat", in: AddInput{Title: "x", Deadline: testToday, Duration: 1, Repeat: "daily"}, want: ErrInvalidRepeat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, s.List(), "rejected tasks are not stored")
}

func TestAdd_DefaultsAndIDs(t *testing.T) {
	s := newTestScheduler(t, testOptions())

	id1 := mustAdd(t, s, AddInput{Title: "a", Deadline: testToday, Duration: 1})
	id2 := mustAdd(t, s, AddInput{Title: "b", Deadline: testToday, Duration: 1, FixedStart: "2026-01-15T13:00"})
	assert.Equal(t, 1, id1)
	assert.Equal(t, 2, id2)

	a, ok := s.Get(id1)
	require.True(t, ok)
	assert.Equal(t, 3, a.Priority)
	assert.Equal(t, model.RepeatNone, a.Repeat)
	assert.False(t, a.IsFixed())

	b, ok := s.Get(id2)
	require.True(t, ok)
	require.NotNil(t, b.FixedStart)
	assert.Equal(t, at(t, testToday+" 13:00"), *b.FixedStart)

	_, ok = s.Get(99)
	assert.False(t, ok)
}

func TestList_OrdersByDeadlineThenPriority(t *testing.T) {
	s := newTestScheduler(t, testOptions())

	mustAdd(t, s, AddInput{Title: "late", Deadline: "2026-01-20", Duration: 1, Priority: 5})
	mustAdd(t, s, AddInput{Title: "low", Deadline: "2026-01-16", Duration: 1, Priority: 1})
	mustAdd(t, s, AddInput{Title: "high", Deadline: "2026-01-16", Duration: 1, Priority: 4})
	mustAdd(t, s, AddInput{Title: "high-2", Deadline: "2026-01-16", Duration: 1, Priority: 4})

	var titles []string
	for _, task := range s.List() {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"high", "high-2", "low", "late"}, titles)
}

func TestDelete_SingleAndAll(t *testing.T) {
	o := testOptions()
	o.HorizonDays = 21
	s := newTestScheduler(t, o)

	series := mustAdd(t, s, AddInput{Title: "Gym", Deadline: testToday, Duration: 1, Repeat: "weekly"})
	other := mustAdd(t, s, AddInput{Title: "Gym", Deadline: testToday, Duration: 1})
	unrelated := mustAdd(t, s, AddInput{Title: "Read", Deadline: testToday, Duration: 1, Repeat: "weekly"})
	require.Len(t, s.List(), 4+1+4)

	// single removes exactly one occurrence
	require.True(t, s.Delete(series+1, model.DeleteSingle))
	assert.Len(t, s.List(), 8)
	_, ok := s.Get(series + 1)
	assert.False(t, ok)

	// all removes the rest of the series only
	require.True(t, s.Delete(series, model.DeleteAll))
	left := s.List()
	require.Len(t, left, 5)
	for _, task := range left {
		if task.Title == "Gym" {
			assert.Equal(t, other, task.ID, "non-recurring task with the same title stays")
		} else {
			assert.Equal(t, "Read", task.Title)
		}
	}
	_, ok = s.Get(unrelated)
	assert.True(t, ok)

	assert.False(t, s.Delete(series, model.DeleteAll), "already gone")
}

func TestDelete_AllOnNonRecurringRemovesOne(t *testing.T) {
	s := newTestScheduler(t, testOptions())
	a := mustAdd(t, s, AddInput{Title: "Same", Deadline: testToday, Duration: 1})
	mustAdd(t, s, AddInput{Title: "Same", Deadline: testToday, Duration: 1})

	require.True(t, s.Delete(a, model.DeleteAll))
	assert.Len(t, s.List(), 1)
}

func TestChangeDuration_ReOptimizes(t *testing.T) {
	o := testOptions()
	o.HorizonDays = 0
	s := newTestScheduler(t, o)

	id := mustAdd(t, s, AddInput{Title: "Write", Deadline: testToday, Duration: 1})
	s.Optimize()
	require.Len(t, s.AgendaAll(), 1)
	assert.Equal(t, at(t, testToday+" 10:00"), s.AgendaAll()[0].End)

	ok, err := s.ChangeDuration(id, 3)
	require.NoError(t, err)
	require.True(t, ok)

	blocks := s.AgendaAll()
	require.Len(t, blocks, 1)
	assert.Equal(t, at(t, testToday+" 12:00"), blocks[0].End)

	ok, err = s.ChangeDuration(404, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), 1e12} {
		_, err = s.ChangeDuration(id, bad)
		assert.ErrorIs(t, err, ErrInvalidDuration, "%v", bad)
		assert.True(t, IsValidation(err))
	}
	task, _ := s.Get(id)
	assert.InDelta(t, 3.0, task.DurationHours, 1e-9)
}

func TestCounter(t *testing.T) {
	var c Counter
	assert.Equal(t, 1, c.NextID())
	assert.Equal(t, 2, c.NextID())
}

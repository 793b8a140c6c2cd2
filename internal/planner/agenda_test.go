package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgendaFor(t *testing.T) {
	s := newTestScheduler(t, testOptions())

	mustAdd(t, s, AddInput{Title: "Essay", Deadline: "2026-01-16", Duration: 10})
	mustAdd(t, s, AddInput{Title: "Dentist", Deadline: "2026-01-16", Duration: 1, FixedStart: "2026-01-16 15:00"})
	s.Optimize()

	today := s.AgendaFor(date(t, testToday))
	require.Len(t, today, 1)
	assert.Equal(t, "Essay", today[0].Title)

	// any instant on the day selects it
	tomorrow := s.AgendaFor(at(t, "2026-01-16 18:45"))
	require.Len(t, tomorrow, 2)
	assert.Equal(t, "Essay", tomorrow[0].Title)
	assert.Equal(t, at(t, "2026-01-16 09:00"), tomorrow[0].Start)
	assert.Equal(t, "Dentist", tomorrow[1].Title)
	assert.True(t, tomorrow[1].Fixed)

	empty := s.AgendaFor(date(t, "2026-02-01"))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAgendaFor_UsesPlannerLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	o := testOptions()
	o.Location = loc
	o.HorizonDays = 0
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, loc)
	s := New(o, WithClock(FixedClock(now)), WithIDGenerator(&Counter{}))

	_, err := s.Add(AddInput{Title: "Morning", Deadline: "2026-01-15", Duration: 1})
	require.NoError(t, err)
	s.Optimize()

	// 2026-01-15 09:00 +09:00 is 2026-01-15 00:00 UTC; the lookup is
	// converted into the planner zone first.
	got := s.AgendaFor(time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC))
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Start.Hour())
}

func TestAgendaAll_ReturnsCopy(t *testing.T) {
	o := testOptions()
	o.HorizonDays = 0
	s := newTestScheduler(t, o)
	mustAdd(t, s, AddInput{Title: "A", Deadline: testToday, Duration: 1})
	s.Optimize()

	got := s.AgendaAll()
	require.Len(t, got, 1)
	got[0].Title = "mutated"
	assert.Equal(t, "A", s.AgendaAll()[0].Title)
}

package model

import (
	"sort"
	"time"
)

// Day boundary policy: streaks are evaluated against fixed-length UTC
// calendar days everywhere, regardless of the device time zone. The client
// sends instants; the server decides which day they fall on.

// DayUTC truncates t to the start of its UTC calendar day.
func DayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProgressRecord is the durable cumulative practice record for one user.
// CurrentStreak/BestStreak are kept consistent with ActivityDates by
// RecordExercise, the only mutator.
type ProgressRecord struct {
	UserID         string      `json:"userId"`
	TotalExercises int         `json:"totalExercises"`
	ActivityDates  []time.Time `json:"activityDates"` // distinct UTC days, ascending
	CurrentStreak  int         `json:"currentStreak"`
	BestStreak     int         `json:"bestStreak"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// NewProgressRecord returns the zero-valued record handed out before the
// user has completed anything. First reads never fail on a missing row.
func NewProgressRecord(userID string) *ProgressRecord {
	return &ProgressRecord{UserID: userID}
}

func (r *ProgressRecord) lastActivity() (time.Time, bool) {
	if len(r.ActivityDates) == 0 {
		return time.Time{}, false
	}
	return r.ActivityDates[len(r.ActivityDates)-1], true
}

func (r *ProgressRecord) hasDay(day time.Time) bool {
	for i := len(r.ActivityDates) - 1; i >= 0; i-- {
		if r.ActivityDates[i].Equal(day) {
			return true
		}
	}
	return false
}

// insertDay adds day at its sorted position, keeping ActivityDates ascending.
func (r *ProgressRecord) insertDay(day time.Time) {
	i := sort.Search(len(r.ActivityDates), func(i int) bool {
		return r.ActivityDates[i].After(day)
	})
	r.ActivityDates = append(r.ActivityDates, time.Time{})
	copy(r.ActivityDates[i+1:], r.ActivityDates[i:])
	r.ActivityDates[i] = day
}

// RecordExercise applies one completed exercise at the given instant.
// Streak rule: a repeat on an already-recorded day leaves streaks unchanged;
// activity exactly one day after the most recent recorded day extends the
// streak; any larger gap (or no prior activity) restarts it at 1. A
// backdated instant fills in the calendar but never rewrites streaks: the
// most recent day is unchanged, so the trailing run is too.
func (r *ProgressRecord) RecordExercise(at time.Time) {
	day := DayUTC(at)
	r.TotalExercises++
	r.UpdatedAt = at.UTC()

	if r.hasDay(day) {
		return
	}

	last, ok := r.lastActivity()
	switch {
	case ok && day.Before(last):
		r.insertDay(day)
		return
	case ok && day.Sub(last) == 24*time.Hour:
		r.CurrentStreak++
	default:
		r.CurrentStreak = 1
	}
	r.ActivityDates = append(r.ActivityDates, day)
	if r.CurrentStreak > r.BestStreak {
		r.BestStreak = r.CurrentStreak
	}
}

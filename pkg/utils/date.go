package utils

import "time"

// TimeNowUTC returns the current time in UTC with microsecond precision, which is what
// postgres timestamptz keeps.
func TimeNowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// PrettyDate renders t in UTC for human-facing messages.
func PrettyDate(t time.Time) string {
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}

package engine

import (
	"time"

	"github.com/jaa/rad/internal/failure"
)

// IsNewer reports whether candidateTag is more than one day after
// currentDate. A release tagged the day after the local build date is the
// local build.
func IsNewer(currentDate, candidateTag string) (bool, error) {
	current, err := parseDate(currentDate)
	if err != nil {
		return false, err
	}
	candidate, err := parseDate(candidateTag)
	if err != nil {
		return false, err
	}
	return candidate.After(current.AddDate(0, 0, 1)), nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, &failure.ParseError{Input: value, Reason: "invalid date", Err: err}
	}
	return t, nil
}

package schedule

import (
	"fmt"
	"time"

	apperrors "telecast/pkg/errors"
)

const (
	dateLayout        = "2006-01-02"
	clockLayout       = "15:04"
	clockLayoutSecond = "15:04:05"
)

// Resolve converts a local wall-clock (date, time, IANA zone) triple into an
// absolute instant, applying the zone's offset rules for that specific date.
// It is pure: same inputs always yield the same instant.
func Resolve(date, clock, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.ErrInvalidTimezone, fmt.Sprintf("unknown timezone %q", zone))
	}

	layout := dateLayout + " " + clockLayout
	if len(clock) == len(clockLayoutSecond) {
		layout = dateLayout + " " + clockLayoutSecond
	}

	t, err := time.ParseInLocation(layout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.ErrInvalidDateTime, fmt.Sprintf("cannot parse %q %q", date, clock))
	}

	return t, nil
}

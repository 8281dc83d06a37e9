package form

import (
	"fmt"
	"time"
)

// Civil date/time layouts used on forms and in the persisted files.
const (
	// DateLayout is the local calendar date layout.
	DateLayout = "2006-01-02"
	// TimeLayout is the local clock time layout.
	TimeLayout = "15:04"
	// DateTimeLayout is the combined local date+time layout.
	DateTimeLayout = "2006-01-02 15:04"
)

// ExitMoment parses the exit date and time as a moment in the given zone.
func ExitMoment(exitDate, exitTime string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, exitDate+" "+exitTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse exit moment: %w", err)
	}

	return t, nil
}

// ControlMoment resolves the control value against the exit date and time.
//
// A full "2006-01-02 15:04" value is taken verbatim. A bare "15:04" value
// lands on the exit date and rolls forward one calendar day when it is not
// after the exit moment, which covers the common overnight control window
// (exit 22:00, control 06:00 means 06:00 the next day). The same rule runs
// at submission time and on every sweep, so legacy records holding a bare
// time-of-day resolve identically on both paths.
func ControlMoment(exitDate, exitTime, control string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(DateTimeLayout, control, loc); err == nil {
		return t, nil
	}

	exit, err := ExitMoment(exitDate, exitTime, loc)
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.ParseInLocation(DateTimeLayout, exitDate+" "+control, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse control %q: %w", control, err)
	}

	if !t.After(exit) {
		t = t.AddDate(0, 0, 1)
	}

	return t, nil
}

// NormalizeControl returns the control deadline as a full "2006-01-02 15:04"
// local value per the ControlMoment rule. The result is a fixed point:
// normalizing an already normalized value reproduces it. On parse failure the
// caller keeps the raw value; this function never panics.
func NormalizeControl(exitDate, exitTime, control string, loc *time.Location) (string, error) {
	t, err := ControlMoment(exitDate, exitTime, control, loc)
	if err != nil {
		return "", err
	}

	return t.Format(DateTimeLayout), nil
}

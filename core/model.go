package core

import (
	"fmt"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	TimeLayout        = "15:04"
	TimeSecondsLayout = "15:04:05"
)

type Event struct {
	Name    string `json:"name"    yaml:"name"`
	Type    string `json:"type"    yaml:"type"`
	Date    string `json:"date"    yaml:"date"`
	Time    string `json:"time"    yaml:"time"`
	Address string `json:"address" yaml:"address"`
}

// Timestamp combines Date and Time into an instant in loc. A nil loc means time.Local.
func (e Event) Timestamp(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range []string{TimeLayout, TimeSecondsLayout} {
		ts, err := time.ParseInLocation(DateLayout+"T"+layout, e.Date+"T"+e.Time, loc)
		if err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: date %q time %q", ErrInvalidTimestamp, e.Date, e.Time)
}

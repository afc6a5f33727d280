package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxNameLength = 100

func ValidateEvent(event Event) error {
	var errs []error

	name := strings.TrimSpace(event.Name)
	if len(name) == 0 {
		errs = append(errs, errors.New("name is required"))
	}

	if len(name) > maxNameLength {
		errs = append(errs, fmt.Errorf("name is too long (%d characters tops)", maxNameLength))
	}

	if len(strings.TrimSpace(event.Type)) == 0 {
		errs = append(errs, errors.New("type is required"))
	}

	if len(strings.TrimSpace(event.Address)) == 0 {
		errs = append(errs, errors.New("address is required"))
	}

	if _, err := time.Parse(DateLayout, event.Date); err != nil {
		errs = append(errs, errors.New("date must be formatted as YYYY-MM-DD"))
	}

	if !validClock(event.Time) {
		errs = append(errs, errors.New("time must be formatted as HH:MM or HH:MM:SS"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, errors.Join(errs...))
	}

	return nil
}

func validClock(value string) bool {
	for _, layout := range []string{TimeLayout, TimeSecondsLayout} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}

	return false
}

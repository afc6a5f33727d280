package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrSlotNotFound     = errors.New("slot not found")
	ErrInvalidTimestamp = errors.New("invalid event timestamp")
	ErrInvalidEvent     = errors.New("invalid event")
)

// Error is the body returned by the HTTP handlers on failure.
type Error struct {
	Message string   `json:"message,omitempty"`
	Err     []string `json:"err,omitempty"`
}

func NewError(message string, errs ...error) *Error {
	e := &Error{Message: message}

	for _, err := range errs {
		if err != nil {
			e.Err = append(e.Err, err.Error())
		}
	}

	return e
}

func (e *Error) Error() string {
	//nolint:errchkjson
	data, _ := json.Marshal(e)
	return string(data)
}

func (e *Error) Unwrap() error {
	if e == nil || len(e.Err) == 0 {
		return nil
	}

	errs := make([]error, 0, len(e.Err))
	for _, msg := range e.Err {
		errs = append(errs, fmt.Errorf("%s", msg))
	}

	return errors.Join(errs...)
}

func (e *Error) Messages() []string {
	return e.Err
}

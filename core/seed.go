package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSeed reads a YAML list of events.
func LoadSeed(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var events []Event

	err = yaml.Unmarshal(data, &events)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	return events, nil
}

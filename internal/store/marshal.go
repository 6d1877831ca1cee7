package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/prereq/internal/ir"
)

// marshalNames converts an identifier list to canonical JSON TEXT.
// A nil list is stored as [].
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := ir.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// unmarshalNames parses a canonical JSON array. Never returns nil.
func unmarshalNames(data string) ([]string, error) {
	names := []string{}
	if data == "" || data == "[]" {
		return names, nil
	}
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	return names, nil
}

// marshalCycles converts cycle member lists to canonical JSON TEXT.
func marshalCycles(cycles [][]string) (string, error) {
	list := make([]any, len(cycles))
	for i, c := range cycles {
		if c == nil {
			c = []string{}
		}
		list[i] = c
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal cycles: %w", err)
	}
	return string(data), nil
}

// unmarshalCycles parses cycle member lists. Never returns nil.
func unmarshalCycles(data string) ([][]string, error) {
	cycles := [][]string{}
	if data == "" || data == "[]" {
		return cycles, nil
	}
	if err := json.Unmarshal([]byte(data), &cycles); err != nil {
		return nil, fmt.Errorf("unmarshal cycles: %w", err)
	}
	return cycles, nil
}

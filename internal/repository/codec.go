package repository

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// encodeRecords renders a collection as a JSON array. A nil slice is written
// as an empty array so lazy initialization and round trips look the same.
func encodeRecords[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}

	return data, nil
}

func decodeRecords[T any](data []byte) ([]T, error) {
	records := []T{}
	if len(data) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if records == nil {
		records = []T{}
	}

	return records, nil
}

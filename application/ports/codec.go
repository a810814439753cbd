package ports

import (
	"encoding/json"
	"fmt"
)

// DecodeRows converts rows into typed records through their JSON tags.
func DecodeRows[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		var v T
		if err := DecodeRow(row, &v); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeRow converts a single row into target.
func DecodeRow(row Row, target interface{}) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

// EncodeRow converts a typed record into a row through its JSON tags.
func EncodeRow(v interface{}) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	row := Row{}
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return row, nil
}

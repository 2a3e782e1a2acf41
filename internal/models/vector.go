package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Vector is a semantic embedding stored as a jsonb array. A nil or empty
// vector means "no embedding available"; callers treat that as a skip
// condition, never as an error.
type Vector []float64

func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

func (v *Vector) Scan(value any) error {
	if value == nil {
		*v = nil
		return nil
	}
	var raw []byte
	switch data := value.(type) {
	case []byte:
		raw = data
	case string:
		raw = []byte(data)
	default:
		return fmt.Errorf("unsupported vector column type %T", value)
	}
	if len(raw) == 0 {
		*v = nil
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (Vector) GormDataType() string {
	return "jsonb"
}

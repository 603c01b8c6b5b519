package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OrderMetadata is the free-form jsonb document stored on an order. The
// database does not constrain its shape.
type OrderMetadata map[string]any

// DefaultOrderMetadata matches the column default.
func DefaultOrderMetadata() OrderMetadata {
	return OrderMetadata{"shipping_address": ""}
}

// Value implements driver.Valuer.
func (m OrderMetadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("marshal order metadata: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (m *OrderMetadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan order metadata: unsupported type %T", value)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("scan order metadata: %w", err)
	}
	*m = decoded
	return nil
}

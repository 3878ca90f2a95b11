package models

import (
	"encoding/json"
	"fmt"
)

// scanJSON unmarshals a JSONB column value into dest. Nil columns leave
// dest untouched so callers get an empty slice instead of an error.
func scanJSON(src interface{}, dest interface{}) error {
	if src == nil {
		return nil
	}
	switch raw := src.(type) {
	case []byte:
		return json.Unmarshal(raw, dest)
	case string:
		return json.Unmarshal([]byte(raw), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

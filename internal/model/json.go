package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is an ordered list of strings stored as a JSON text column.
type StringList []string

// Value encodes the list as JSON. A nil list is stored as "[]".
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a JSON text column into the list.
func (l *StringList) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// MarshalJSON keeps empty lists as [] instead of null.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Clone returns an independent copy.
func (l StringList) Clone() StringList {
	if l == nil {
		return StringList{}
	}
	out := make(StringList, len(l))
	copy(out, l)
	return out
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ItemID is a destination-assigned identifier. The destination may use integer
// or string primary keys, so the id remembers which JSON form it arrived in
// and is written back in that same form.
type ItemID struct {
	value   string
	numeric bool
}

// StringItemID returns an id that encodes as a JSON string
func StringItemID(v string) ItemID {
	return ItemID{value: v}
}

// NumericItemID returns an id that encodes as a JSON number
func NumericItemID(n int64) ItemID {
	return ItemID{value: strconv.FormatInt(n, 10), numeric: true}
}

// UnmarshalJSON accepts both JSON strings and JSON numbers
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ItemID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode item id: %w", err)
		}
		*id = StringItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to decode item id: %w", err)
	}
	*id = ItemID{value: n.String(), numeric: true}
	return nil
}

// MarshalJSON writes the id in the form it was decoded from
func (id ItemID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// IsZero reports whether the id is unset
func (id ItemID) IsZero() bool {
	return id.value == ""
}

func (id ItemID) String() string {
	return id.value
}

// Item is a destination collection entry. Fields holds the raw payload as returned.
type Item struct {
	ID     ItemID
	Fields map[string]any
}

// UnmarshalJSON decodes the id and keeps the remaining fields
func (i *Item) UnmarshalJSON(data []byte) error {
	var head struct {
		ID ItemID `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	i.ID = head.ID
	i.Fields = fields
	return nil
}

// StringField returns a field as a string, or "" if it is missing or not a string
func (i Item) StringField(field string) string {
	if v, ok := i.Fields[field].(string); ok {
		return v
	}
	return ""
}

// UpsertResult is the outcome of a create-or-update on a destination record
type UpsertResult struct {
	ID      ItemID
	Created bool
}

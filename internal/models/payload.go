package models

import (
	"bytes"
	"encoding/json"
)

// Payload is client-submitted data intended to create or modify a Bug.
// A nil field means the client did not supply it.
type Payload struct {
	Title       *string    `json:"title" validate:"required,notblank"`
	Description *FreeText  `json:"description"`
	Status      *BugStatus `json:"status" validate:"omitempty,oneof=open in-progress closed"`
}

// FreeText is a text field that accepts any JSON value. Strings are kept as-is,
// anything else is stored as its JSON text.
type FreeText string

func (t *FreeText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = FreeText(s)
		return nil
	}
	*t = FreeText(bytes.TrimSpace(data))
	return nil
}

// String returns the text, or "" for a nil receiver.
func (t *FreeText) String() string {
	if t == nil {
		return ""
	}
	return string(*t)
}

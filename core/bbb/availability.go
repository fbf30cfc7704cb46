package bbb

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

type (
	// Availability is a decoded Moodle availability tree (restriction descriptor).
	Availability struct {
		Op         string      `json:"op"`
		Conditions []Condition `json:"c"`
		ShowC      []bool      `json:"showc"`
	}

	// Condition is one entry of an availability tree; which fields are set depends on Type.
	Condition struct {
		Type string `json:"type"`

		// date
		Direction null.String `json:"d"`
		Time      null.Int64  `json:"t"`

		// group & grade item
		ID null.Int `json:"id"`

		// profile
		StandardField null.String `json:"sf"`
		CustomField   null.String `json:"cf"`
		Operator      null.String `json:"op"`
		Value         null.String `json:"v"`

		// completion
		CourseModule null.Int `json:"cm"`
		Expected     null.Int `json:"e"`

		// grade
		Min null.Float64 `json:"min"`
		Max null.Float64 `json:"max"`

		raw json.RawMessage
	}
)

func (c *Condition) UnmarshalJSON(data []byte) error {
	type condition Condition
	var cond condition
	if err := json.Unmarshal(data, &cond); err != nil {
		return err
	}
	*c = Condition(cond)

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	c.raw = buf.Bytes()
	return nil
}

// String returns the compact JSON the condition was decoded from.
func (c Condition) String() string {
	if len(c.raw) == 0 {
		data, _ := json.Marshal(c)
		return string(data)
	}
	return string(c.raw)
}

// ParseAvailability decodes a serialized availability descriptor.
// An empty descriptor yields (nil, nil).
func ParseAvailability(raw string) (*Availability, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var avail Availability
	if err := json.Unmarshal([]byte(raw), &avail); err != nil {
		return nil, errors.Wrap(err, "decoding availability")
	}
	return &avail, nil
}

// HasRestrictions tells whether a holds at least one condition with a type.
func HasRestrictions(a *Availability) bool {
	if a == nil {
		return false
	}
	for _, c := range a.Conditions {
		if c.Type != "" {
			return true
		}
	}
	return false
}

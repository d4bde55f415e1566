package model

import (
	"encoding/json"
	"fmt"
)

// RawRow is one data row of the first sheet, keyed by header text.
// Index is the sheet row number (header is row 1).
type RawRow struct {
	Index int
	Cells map[string]any
}

// CandidateRecord is a row after coercion, before validation. Every schema
// field is present in Fields; missing columns hold nil.
type CandidateRecord struct {
	Kind     EntityKind
	RowIndex int
	Fields   map[string]any
}

func (r CandidateRecord) Get(field string) any {
	return r.Fields[field]
}

// Text returns the field if it holds a string.
func (r CandidateRecord) Text(field string) (string, bool) {
	s, ok := r.Fields[field].(string)
	return s, ok
}

// Key returns the identity value used to correlate server rejections.
func (r CandidateRecord) Key() string {
	v := r.Fields[r.Kind.IdentityField()]
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// MarshalJSON encodes only the entity fields; the row index never leaves the
// process.
func (r CandidateRecord) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}

func (r *CandidateRecord) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Fields)
}

type Reason struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (r Reason) String() string {
	if r.Value == nil {
		return fmt.Sprintf("%s: %s", r.Field, r.Message)
	}
	return fmt.Sprintf("%s: %s, got %q", r.Field, r.Message, fmt.Sprint(r.Value))
}

type ValidationOutcome struct {
	RowIndex int
	Record   CandidateRecord
	Reasons  []Reason
}

func (o ValidationOutcome) Valid() bool {
	return len(o.Reasons) == 0
}

type RejectedRow struct {
	RowIndex int      `json:"rowIndex"`
	Reasons  []Reason `json:"reasons"`
}

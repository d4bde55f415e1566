package normalize

import (
	"math"
	"strconv"
	"strings"

	"onduty-admin/internal/model"
)

type Coercion int

const (
	// Text trims strings and renders numbers as their shortest text.
	Text Coercion = iota
	// NullableText is Text with empty mapped to nil.
	NullableText
	// Integer parses integer-valued strings and numbers into int.
	Integer
	// Enum canonicalizes numeric tokens ("2.0" -> "2") and trims the rest.
	Enum
	// Year keeps a 4-digit year as text ("2022", 2022.0 -> "2022").
	Year
)

type FieldCoercion struct {
	Field  string
	Coerce Coercion
}

var tables = map[model.EntityKind][]FieldCoercion{
	model.EntityStudent: {
		{model.FieldRegNo, Text},
		{model.FieldRollNo, Integer},
		{model.FieldName, Text},
		{model.FieldYear, Enum},
		{model.FieldSection, Enum},
		{model.FieldSemester, Enum},
		{model.FieldBatch, Year},
		{model.FieldEmail, NullableText},
		{model.FieldDepartmentID, NullableText},
	},
	model.EntitySubject: {
		{model.FieldSubjectCode, Text},
		{model.FieldName, Text},
		{model.FieldSemester, Enum},
	},
	model.EntityTeacher: {
		{model.FieldName, Text},
		{model.FieldEmail, Text},
	},
}

// roleTable covers the scalar members of a role assignment payload.
var roleTable = []FieldCoercion{
	{"batch", Year},
	{"year", Enum},
	{"semester", Enum},
	{"section", Enum},
	{"startRollNo", Integer},
	{"endRollNo", Integer},
}

// Fields lists the canonical fields of kind in declaration order.
func Fields(kind model.EntityKind) []string {
	table := tables[kind]
	fields := make([]string, len(table))
	for i, fc := range table {
		fields[i] = fc.Field
	}
	return fields
}

// Normalize maps row into the canonical shape of kind. Unknown columns are
// dropped, missing ones become nil, failed coercions keep the raw value.
func Normalize(kind model.EntityKind, row model.RawRow) model.CandidateRecord {
	table := tables[kind]
	record := model.CandidateRecord{
		Kind:     kind,
		RowIndex: row.Index,
		Fields:   make(map[string]any, len(table)),
	}
	for _, fc := range table {
		record.Fields[fc.Field] = coerce(fc.Coerce, row.Cells[fc.Field])
	}
	return record
}

// RoleAssignment coerces spreadsheet-style values in a role assignment
// payload in place and returns it.
func RoleAssignment(payload map[string]any) map[string]any {
	for _, fc := range roleTable {
		if v, ok := payload[fc.Field]; ok {
			payload[fc.Field] = coerce(fc.Coerce, v)
		}
	}
	return payload
}

func coerce(c Coercion, v any) any {
	if v == nil {
		return nil
	}
	switch c {
	case Text:
		return text(v)
	case NullableText:
		if s, ok := text(v).(string); ok && s == "" {
			return nil
		}
		return text(v)
	case Integer:
		if n, ok := IntegerValue(v); ok {
			return n
		}
		return v
	case Enum:
		if n, ok := IntegerValue(v); ok {
			return strconv.Itoa(n)
		}
		return text(v)
	case Year:
		if n, ok := IntegerValue(v); ok && n >= 1000 && n <= 9999 {
			return strconv.Itoa(n)
		}
		return text(v)
	}
	return v
}

func text(v any) any {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return v
}

// IntegerValue reports v as an int when it is an integer-valued number or
// numeric string.
func IntegerValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1e15 {
			return int(t), true
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return IntegerValue(f)
		}
	}
	return 0, false
}

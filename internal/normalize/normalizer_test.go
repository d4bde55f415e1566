package normalize

import (
	"testing"

	"onduty-admin/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStudentCoercions(t *testing.T) {
	row := model.RawRow{Index: 2, Cells: map[string]any{
		"regNo":    " 21CS001 ",
		"rollno":   "12",
		"name":     "Asha",
		"year":     "2.0",
		"section":  "B",
		"semester": 3.0,
		"batch":    "2022",
		"email":    "",
		"unknown":  "dropped",
	}}

	rec := Normalize(model.EntityStudent, row)

	assert.Equal(t, model.EntityStudent, rec.Kind)
	assert.Equal(t, 2, rec.RowIndex)
	assert.Equal(t, "21CS001", rec.Fields["regNo"])
	assert.Equal(t, 12, rec.Fields["rollno"])
	assert.Equal(t, "2", rec.Fields["year"])
	assert.Equal(t, "3", rec.Fields["semester"])
	assert.Equal(t, "2022", rec.Fields["batch"])
	assert.Nil(t, rec.Fields["email"])

	_, hasUnknown := rec.Fields["unknown"]
	assert.False(t, hasUnknown)
	assert.Len(t, rec.Fields, len(Fields(model.EntityStudent)))
}

func TestNormalizeKeepsRawValueOnFailedCoercion(t *testing.T) {
	rec := Normalize(model.EntityStudent, model.RawRow{Index: 2, Cells: map[string]any{
		"rollno": "abc",
		"batch":  "twenty",
	}})

	assert.Equal(t, "abc", rec.Fields["rollno"])
	assert.Equal(t, "twenty", rec.Fields["batch"])
}

func TestNormalizeMissingColumnsAreNil(t *testing.T) {
	rec := Normalize(model.EntitySubject, model.RawRow{Index: 5, Cells: map[string]any{
		"name": "Compilers",
	}})

	assert.Contains(t, rec.Fields, "subjectCode")
	assert.Nil(t, rec.Fields["subjectCode"])
	assert.Nil(t, rec.Fields["semester"])
	assert.Equal(t, "Compilers", rec.Fields["name"])
}

func TestNormalizeYearTokensPassThrough(t *testing.T) {
	for _, token := range []string{"1", "4", "5", "6", "7"} {
		rec := Normalize(model.EntityStudent, model.RawRow{Cells: map[string]any{"year": token}})
		assert.Equal(t, token, rec.Fields["year"])
	}
}

func TestIntegerValue(t *testing.T) {
	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{"12", 12, true},
		{" 7 ", 7, true},
		{"12.0", 12, true},
		{12.0, 12, true},
		{12.5, 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := IntegerValue(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}
}

func TestRoleAssignmentPayload(t *testing.T) {
	payload := RoleAssignment(map[string]any{
		"role":        "TUTOR",
		"year":        float64(2),
		"semester":    "3",
		"batch":       float64(2023),
		"startRollNo": "1",
		"endRollNo":   float64(30),
	})

	assert.Equal(t, "2", payload["year"])
	assert.Equal(t, "2023", payload["batch"])
	assert.Equal(t, 1, payload["startRollNo"])
	assert.Equal(t, 30, payload["endRollNo"])
	assert.Equal(t, "TUTOR", payload["role"])
}

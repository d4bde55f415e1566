package schema

import (
	"regexp"
	"strconv"

	"onduty-admin/internal/model"
)

type ValueType int

const (
	StringValue ValueType = iota
	NumberValue
)

// Check inspects a value that already has the right type. It returns the
// failure message, or "" when the value passes.
type Check func(v any) string

// FieldRule is one row of an entity's declaration table. An empty Required
// message makes the field nullable.
type FieldRule struct {
	Field    string
	Type     ValueType
	Required string
	Checks   []Check
}

// CrossRule runs after every field rule passed for the fields it names.
type CrossRule struct {
	Fields []string
	Report string // field the reason is attached to
	Check  func(r model.CandidateRecord) string
}

type Schema struct {
	Kind   model.EntityKind
	Fields []FieldRule
	Cross  []CrossRule
}

var (
	closedYears = []string{"1", "2", "3", "4"}
	openYears   = regexp.MustCompile(`^[5-6]$`)
	sections    = []string{"A", "B", "C", "D"}
	semesters   = []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	fourDigits  = regexp.MustCompile(`^\d{4}$`)
)

// semestersByYear is the year/semester pairing. Continuing students (years 5
// and 6) may be in any semester.
var semestersByYear = map[string][]string{
	"1": {"1", "2"},
	"2": {"3", "4"},
	"3": {"5", "6"},
	"4": {"7", "8"},
	"5": semesters,
	"6": semesters,
}

// SemesterAllowed reports whether semester belongs to year.
func SemesterAllowed(year, semester string) bool {
	for _, s := range semestersByYear[year] {
		if s == semester {
			return true
		}
	}
	return false
}

// ValidYear accepts the closed set 1-4 and the open range 5-6.
func ValidYear(year string) bool {
	return contains(closedYears, year) || openYears.MatchString(year)
}

// ValidSection accepts A-D or any other non-empty section name.
func ValidSection(section string) bool {
	return contains(sections, section) || section != ""
}

func ValidSemester(semester string) bool {
	return contains(semesters, semester)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func yearCheck(v any) string {
	if !ValidYear(v.(string)) {
		return "Invalid year, expected 1-4 or 5-6"
	}
	return ""
}

func sectionCheck(v any) string {
	if !ValidSection(v.(string)) {
		return "Section is required"
	}
	return ""
}

func semesterCheck(v any) string {
	if !ValidSemester(v.(string)) {
		return "Invalid semester, expected 1-8"
	}
	return ""
}

func minCheck(floor int, message string) Check {
	return func(v any) string {
		if v.(int) < floor {
			return message
		}
		return ""
	}
}

func (v *Validator) batchCheck(value any) string {
	s := value.(string)
	if !fourDigits.MatchString(s) {
		return "Invalid batch year"
	}
	year, _ := strconv.Atoi(s)
	if year < v.minBatchYear || year > v.now().Year()+v.batchLookahead {
		return "Invalid batch year"
	}
	return ""
}

func (v *Validator) emailCheck(value any) string {
	if v.validate.Var(value.(string), "email") != nil {
		return "Invalid email address"
	}
	return ""
}

func yearSemesterCheck(r model.CandidateRecord) string {
	year, _ := r.Text(model.FieldYear)
	semester, _ := r.Text(model.FieldSemester)
	if !SemesterAllowed(year, semester) {
		return "Invalid year and semester combination"
	}
	return ""
}

func (v *Validator) buildSchemas() map[model.EntityKind]Schema {
	return map[model.EntityKind]Schema{
		model.EntityStudent: {
			Kind: model.EntityStudent,
			Fields: []FieldRule{
				{Field: model.FieldRegNo, Type: StringValue, Required: "Registration number is required"},
				{Field: model.FieldRollNo, Type: NumberValue, Required: "Roll number is required",
					Checks: []Check{minCheck(1, "Roll number is required")}},
				{Field: model.FieldName, Type: StringValue, Required: "Name is required"},
				{Field: model.FieldYear, Type: StringValue, Required: "Year is required",
					Checks: []Check{yearCheck}},
				{Field: model.FieldSection, Type: StringValue, Required: "Section is required",
					Checks: []Check{sectionCheck}},
				{Field: model.FieldSemester, Type: StringValue, Required: "Semester is required",
					Checks: []Check{semesterCheck}},
				{Field: model.FieldBatch, Type: StringValue, Required: "Batch is required",
					Checks: []Check{v.batchCheck}},
				{Field: model.FieldEmail, Type: StringValue, Checks: []Check{v.emailCheck}},
				{Field: model.FieldDepartmentID, Type: StringValue},
			},
			Cross: []CrossRule{
				{
					Fields: []string{model.FieldYear, model.FieldSemester},
					Report: model.FieldSemester,
					Check:  yearSemesterCheck,
				},
			},
		},
		model.EntitySubject: {
			Kind: model.EntitySubject,
			Fields: []FieldRule{
				{Field: model.FieldSubjectCode, Type: StringValue, Required: "Subject code is required"},
				{Field: model.FieldName, Type: StringValue, Required: "Subject name is required"},
				{Field: model.FieldSemester, Type: StringValue, Required: "Semester is required",
					Checks: []Check{semesterCheck}},
			},
		},
		model.EntityTeacher: {
			Kind: model.EntityTeacher,
			Fields: []FieldRule{
				{Field: model.FieldName, Type: StringValue, Required: "Name is required"},
				{Field: model.FieldEmail, Type: StringValue, Required: "Email is required",
					Checks: []Check{v.emailCheck}},
			},
		},
	}
}

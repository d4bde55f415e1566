package model

import (
	"strings"

	"onduty-admin/pkg/errors"
)

type EntityKind string

const (
	EntityStudent EntityKind = "student"
	EntitySubject EntityKind = "subject"
	EntityTeacher EntityKind = "teacher"
)

var EntityKinds = []EntityKind{EntityStudent, EntitySubject, EntityTeacher}

func ParseEntityKind(s string) (EntityKind, error) {
	kind := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case EntityStudent, EntitySubject, EntityTeacher:
		return kind, nil
	}
	return "", errors.ErrUnknownEntityKind
}

func (k EntityKind) String() string {
	return string(k)
}

// Field names as they appear in spreadsheet headers and in the JSON sent to
// the backend.
const (
	FieldRegNo        = "regNo"
	FieldRollNo       = "rollno"
	FieldName         = "name"
	FieldYear         = "year"
	FieldSection      = "section"
	FieldSemester     = "semester"
	FieldBatch        = "batch"
	FieldEmail        = "email"
	FieldDepartmentID = "departmentId"
	FieldSubjectCode  = "subjectCode"
)

// IdentityField is the column the backend uses to detect duplicates.
func (k EntityKind) IdentityField() string {
	switch k {
	case EntityStudent:
		return FieldRegNo
	case EntitySubject:
		return FieldSubjectCode
	case EntityTeacher:
		return FieldEmail
	}
	return ""
}

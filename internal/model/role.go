package model

import (
	"encoding/json"
	"fmt"

	"onduty-admin/pkg/errors"
)

type Role string

const (
	RoleTutor        Role = "TUTOR"
	RoleYearInCharge Role = "YEAR_IN_CHARGE"
	RoleHOD          Role = "HOD"
)

// RoleAssignment attaches a teacher to a tutoring or oversight scope. The
// concrete type decides which fields are required.
type RoleAssignment interface {
	Role() Role
	Teacher() string
	roleAssignment()
}

type TutorAssignment struct {
	TeacherID    string `json:"teacherId" validate:"required"`
	DepartmentID string `json:"departmentId" validate:"required"`
	Batch        string `json:"batch" validate:"required"`
	Year         string `json:"year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	Section      string `json:"section" validate:"required"`
	StartRollNo  int    `json:"startRollNo" validate:"min=1"`
	EndRollNo    int    `json:"endRollNo" validate:"min=1"`
}

type YearInChargeAssignment struct {
	TeacherID    string `json:"teacherId" validate:"required"`
	DepartmentID string `json:"departmentId" validate:"required"`
	Batch        string `json:"batch" validate:"required"`
	Year         string `json:"year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

type HODAssignment struct {
	TeacherID    string `json:"teacherId" validate:"required"`
	DepartmentID string `json:"departmentId" validate:"required"`
}

func (TutorAssignment) Role() Role        { return RoleTutor }
func (YearInChargeAssignment) Role() Role { return RoleYearInCharge }
func (HODAssignment) Role() Role          { return RoleHOD }

func (a TutorAssignment) Teacher() string        { return a.TeacherID }
func (a YearInChargeAssignment) Teacher() string { return a.TeacherID }
func (a HODAssignment) Teacher() string          { return a.TeacherID }

func (TutorAssignment) roleAssignment()        {}
func (YearInChargeAssignment) roleAssignment() {}
func (HODAssignment) roleAssignment()          {}

func (a TutorAssignment) MarshalJSON() ([]byte, error) {
	type alias TutorAssignment
	return json.Marshal(struct {
		Role Role `json:"role"`
		alias
	}{RoleTutor, alias(a)})
}

func (a YearInChargeAssignment) MarshalJSON() ([]byte, error) {
	type alias YearInChargeAssignment
	return json.Marshal(struct {
		Role Role `json:"role"`
		alias
	}{RoleYearInCharge, alias(a)})
}

func (a HODAssignment) MarshalJSON() ([]byte, error) {
	type alias HODAssignment
	return json.Marshal(struct {
		Role Role `json:"role"`
		alias
	}{RoleHOD, alias(a)})
}

// DecodeRoleAssignment picks the variant from the "role" discriminator.
func DecodeRoleAssignment(data []byte) (RoleAssignment, error) {
	var head struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode role assignment: %w", err)
	}

	switch head.Role {
	case RoleTutor:
		var a TutorAssignment
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("failed to decode tutor assignment: %w", err)
		}
		return a, nil
	case RoleYearInCharge:
		var a YearInChargeAssignment
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("failed to decode year in charge assignment: %w", err)
		}
		return a, nil
	case RoleHOD:
		var a HODAssignment
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("failed to decode hod assignment: %w", err)
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", errors.ErrUnknownRole, head.Role)
}

package schema

import (
	"testing"

	"onduty-admin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTutor() model.TutorAssignment {
	return model.TutorAssignment{
		TeacherID:    "t-1",
		DepartmentID: "d-1",
		Batch:        "2024",
		Year:         "1",
		Semester:     "1",
		Section:      "A",
		StartRollNo:  1,
		EndRollNo:    30,
	}
}

func TestValidateRoleAssignmentVariants(t *testing.T) {
	v := newTestValidator()

	assert.Empty(t, v.ValidateRoleAssignment(validTutor()))
	assert.Empty(t, v.ValidateRoleAssignment(model.YearInChargeAssignment{
		TeacherID: "t-1", DepartmentID: "d-1", Batch: "2023", Year: "4", Semester: "8",
	}))
	assert.Empty(t, v.ValidateRoleAssignment(model.HODAssignment{TeacherID: "t-1", DepartmentID: "d-1"}))
}

func TestValidateRoleAssignmentRequiredFields(t *testing.T) {
	reasons := newTestValidator().ValidateRoleAssignment(model.HODAssignment{TeacherID: "t-1"})
	require.Len(t, reasons, 1)
	assert.Equal(t, "departmentId", reasons[0].Field)
	assert.Equal(t, "departmentId is required", reasons[0].Message)
}

func TestValidateTutorRollRange(t *testing.T) {
	v := newTestValidator()

	a := validTutor()
	a.StartRollNo = 40
	a.EndRollNo = 10
	reasons := v.ValidateRoleAssignment(a)
	require.Len(t, reasons, 1)
	assert.Equal(t, "endRollNo", reasons[0].Field)

	a.StartRollNo = 0
	reasons = v.ValidateRoleAssignment(a)
	assert.Equal(t, []string{"startRollNo"}, fieldsOf(reasons))
	assert.Equal(t, "startRollNo must be at least 1", reasons[0].Message)
}

func TestValidateYearInChargePairing(t *testing.T) {
	reasons := newTestValidator().ValidateRoleAssignment(model.YearInChargeAssignment{
		TeacherID: "t-1", DepartmentID: "d-1", Batch: "2023", Year: "2", Semester: "5",
	})
	require.Len(t, reasons, 1)
	assert.Equal(t, "semester", reasons[0].Field)
	assert.Equal(t, "Invalid year and semester combination", reasons[0].Message)
}

func TestValidateRoleAssignmentNil(t *testing.T) {
	reasons := newTestValidator().ValidateRoleAssignment(nil)
	require.Len(t, reasons, 1)
	assert.Equal(t, "role", reasons[0].Field)
}

func TestDecodeAndValidateRoleAssignment(t *testing.T) {
	ra, err := model.DecodeRoleAssignment([]byte(`{"role":"YEAR_IN_CHARGE","teacherId":"t-9","departmentId":"d-2","batch":"2022","year":"6","semester":"2"}`))
	require.NoError(t, err)
	assert.Equal(t, model.RoleYearInCharge, ra.Role())
	assert.Empty(t, newTestValidator().ValidateRoleAssignment(ra))
}

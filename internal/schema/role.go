package schema

import (
	stderrors "errors"

	"onduty-admin/internal/model"

	"github.com/go-playground/validator/v10"
)

// ValidateRoleAssignment runs the tag rules of the concrete variant, then the
// variant's own scope rules. An empty result means the assignment is valid.
func (v *Validator) ValidateRoleAssignment(ra model.RoleAssignment) []model.Reason {
	if ra == nil {
		return []model.Reason{{Field: "role", Message: "Role is required"}}
	}

	reasons := v.structReasons(ra)
	failed := make(map[string]bool, len(reasons))
	for _, r := range reasons {
		failed[r.Field] = true
	}

	switch a := ra.(type) {
	case model.TutorAssignment:
		reasons = append(reasons, v.scopeReasons(a.Batch, a.Year, a.Semester, failed)...)
		if !failed["section"] && !ValidSection(a.Section) {
			reasons = append(reasons, model.Reason{Field: "section", Message: "Section is required"})
		}
		if !failed["startRollNo"] && !failed["endRollNo"] && a.EndRollNo < a.StartRollNo {
			reasons = append(reasons, model.Reason{
				Field:   "endRollNo",
				Message: "End Roll No must not be less than Start Roll No",
				Value:   a.EndRollNo,
			})
		}
	case model.YearInChargeAssignment:
		reasons = append(reasons, v.scopeReasons(a.Batch, a.Year, a.Semester, failed)...)
	case model.HODAssignment:
		// department only
	default:
		reasons = append(reasons, model.Reason{Field: "role", Message: "Unknown role", Value: string(ra.Role())})
	}

	return reasons
}

func (v *Validator) structReasons(ra model.RoleAssignment) []model.Reason {
	err := v.validate.Struct(ra)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return []model.Reason{{Field: "role", Message: err.Error()}}
	}

	reasons := make([]model.Reason, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, model.Reason{
			Field:   fe.Field(),
			Message: fe.Translate(v.translator),
		})
	}
	return reasons
}

// scopeReasons checks the batch/year/semester scope shared by TUTOR and
// YEAR_IN_CHARGE, skipping fields that already failed.
func (v *Validator) scopeReasons(batch, year, semester string, failed map[string]bool) []model.Reason {
	var reasons []model.Reason

	if !failed["batch"] {
		if msg := v.batchCheck(batch); msg != "" {
			reasons = append(reasons, model.Reason{Field: "batch", Message: msg, Value: batch})
			failed["batch"] = true
		}
	}
	if !failed["year"] {
		if msg := yearCheck(year); msg != "" {
			reasons = append(reasons, model.Reason{Field: "year", Message: msg, Value: year})
			failed["year"] = true
		}
	}
	if !failed["semester"] {
		if msg := semesterCheck(semester); msg != "" {
			reasons = append(reasons, model.Reason{Field: "semester", Message: msg, Value: semester})
			failed["semester"] = true
		}
	}
	if !failed["year"] && !failed["semester"] && !SemesterAllowed(year, semester) {
		reasons = append(reasons, model.Reason{Field: "semester", Message: "Invalid year and semester combination"})
	}
	return reasons
}

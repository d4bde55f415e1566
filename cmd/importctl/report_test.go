package main

import (
	"bytes"
	"testing"

	"onduty-admin/internal/batch"
	"onduty-admin/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRenderPartition(t *testing.T) {
	part := batch.Partition{
		Accepted: []model.CandidateRecord{{
			Kind: model.EntitySubject, RowIndex: 3,
			Fields: map[string]any{"subjectCode": "CS301", "name": "Compilers", "semester": "5"},
		}},
		Rejected: []model.RejectedRow{{
			RowIndex: 2,
			Reasons:  []model.Reason{{Field: "semester", Message: "Invalid semester", Value: "9"}},
		}},
	}

	var out bytes.Buffer
	renderPartition(&out, model.EntitySubject, part)

	s := out.String()
	assert.Contains(t, s, "subject import: 2 rows")
	assert.Contains(t, s, "CS301")
	assert.Contains(t, s, `semester: Invalid semester, got "9"`)
}

func TestRenderResult(t *testing.T) {
	result := &model.BatchResult{
		Kind: model.EntityStudent, State: model.StateDone, TotalRows: 5, AcceptedCount: 4,
		ServerRejected: []model.ServerRejected{{
			RowIndex: 4,
			Record:   model.CandidateRecord{Kind: model.EntityStudent, Fields: map[string]any{"regNo": "REG3"}},
			Reason:   "Registration number already exists",
		}},
	}

	var out bytes.Buffer
	renderResult(&out, result)

	s := out.String()
	assert.Contains(t, s, "student import DONE")
	assert.Contains(t, s, "REG3")
	assert.Contains(t, s, "Registration number already exists")
}

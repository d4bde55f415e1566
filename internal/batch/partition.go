package batch

import (
	"onduty-admin/internal/model"
	"onduty-admin/internal/normalize"
	"onduty-admin/internal/schema"
)

// Partition splits decoded rows by client-side validity. Accepted and
// Rejected keep the order of the input rows.
type Partition struct {
	Accepted []model.CandidateRecord
	Rejected []model.RejectedRow
	Outcomes []model.ValidationOutcome
}

func (p Partition) Total() int {
	return len(p.Accepted) + len(p.Rejected)
}

type Partitioner struct {
	validator *schema.Validator
}

func NewPartitioner(validator *schema.Validator) *Partitioner {
	return &Partitioner{validator: validator}
}

// Partition normalizes and validates every row in input order. Duplicates
// are passed through; the backend decides uniqueness.
func (p *Partitioner) Partition(kind model.EntityKind, rows []model.RawRow) Partition {
	result := Partition{
		Accepted: make([]model.CandidateRecord, 0, len(rows)),
		Rejected: []model.RejectedRow{},
		Outcomes: make([]model.ValidationOutcome, 0, len(rows)),
	}

	for _, row := range rows {
		outcome := p.validator.Validate(normalize.Normalize(kind, row))
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Valid() {
			result.Accepted = append(result.Accepted, outcome.Record)
			continue
		}
		result.Rejected = append(result.Rejected, model.RejectedRow{
			RowIndex: outcome.RowIndex,
			Reasons:  outcome.Reasons,
		})
	}

	return result
}

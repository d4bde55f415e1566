package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"onduty-admin/internal/model"
	"onduty-admin/pkg/errors"
)

// Submit sends records as one bulk-create request for kind. The returned
// result satisfies AcceptedCount+len(ServerRejected) == len(records).
func (c *Client) Submit(ctx context.Context, kind model.EntityKind, records []model.CandidateRecord) (*model.SubmitResult, error) {
	if len(records) == 0 {
		return nil, errors.ErrEmptyBatch
	}

	endpoint := c.cfg.Endpoint(kind)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownEntityKind, kind)
	}

	c.log.Debug().
		Str("kind", string(kind)).
		Int("batch_size", len(records)).
		Msg("Sending batch to backend")

	data, err := c.post(ctx, endpoint, records)
	if err != nil {
		return nil, err
	}

	created, err := decodeBulkCreate(data)
	if err != nil {
		return nil, errors.NewSubmissionError(err, 0, "failed to decode bulk-create data")
	}

	result := reconcile(records, created.Failed)
	if unmatched := len(created.Failed) - len(result.ServerRejected); unmatched > 0 {
		c.log.Warn().
			Str("kind", string(kind)).
			Int("unmatched", unmatched).
			Msg("Backend reported failures that match no sent record")
	}
	if created.Count != result.AcceptedCount {
		c.log.Warn().
			Str("kind", string(kind)).
			Int("reported", created.Count).
			Int("derived", result.AcceptedCount).
			Msg("Backend count differs from reconciled count")
	}

	c.log.Info().
		Str("kind", string(kind)).
		Int("accepted", result.AcceptedCount).
		Int("server_rejected", len(result.ServerRejected)).
		Msg("Batch submitted")

	return result, nil
}

// decodeBulkCreate accepts either {"count":N,"failed":[...]} or an array of
// created rows.
func decodeBulkCreate(data json.RawMessage) (*model.BulkCreateData, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &model.BulkCreateData{}, nil
	}

	if trimmed[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return &model.BulkCreateData{Count: len(rows)}, nil
	}

	var created model.BulkCreateData
	if err := json.Unmarshal(trimmed, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// reconcile attributes each reported failure to exactly one sent record, by
// index when given, otherwise by the first unclaimed record with that key.
func reconcile(records []model.CandidateRecord, failed []model.FailedRecord) *model.SubmitResult {
	claimed := make([]bool, len(records))
	rejected := make([]model.ServerRejected, 0, len(failed))

	claim := func(i int, reason string) {
		claimed[i] = true
		rejected = append(rejected, model.ServerRejected{
			RowIndex: records[i].RowIndex,
			Record:   records[i],
			Reason:   reason,
		})
	}

	for _, f := range failed {
		if f.Index != nil {
			if i := *f.Index; i >= 0 && i < len(records) && !claimed[i] {
				claim(i, f.Reason)
			}
			continue
		}
		if f.Key == "" {
			continue
		}
		for i, r := range records {
			if !claimed[i] && r.Key() == f.Key {
				claim(i, f.Reason)
				break
			}
		}
	}

	return &model.SubmitResult{
		AcceptedCount:  len(records) - len(rejected),
		ServerRejected: rejected,
	}
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"onduty-admin/internal/batch"
	"onduty-admin/internal/model"
	"onduty-admin/internal/normalize"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func renderPartition(w io.Writer, kind model.EntityKind, part batch.Partition) {
	fields := normalize.Fields(kind)

	color.New(color.FgCyan).Fprintf(w, "\n=== %s import: %d rows ===\n", kind, part.Total())

	if len(part.Accepted) > 0 {
		color.New(color.FgGreen).Fprintf(w, "\nAccepted (%d)\n", len(part.Accepted))
		table := newTable(w)
		table.SetHeader(append([]string{"Row"}, fields...))
		for _, rec := range part.Accepted {
			row := []string{strconv.Itoa(rec.RowIndex)}
			for _, f := range fields {
				row = append(row, cell(rec.Get(f)))
			}
			table.Append(row)
		}
		table.Render()
	}

	renderRejected(w, part.Rejected)
}

func renderRejected(w io.Writer, rejected []model.RejectedRow) {
	if len(rejected) == 0 {
		return
	}

	color.New(color.FgRed).Fprintf(w, "\nRejected (%d)\n", len(rejected))
	table := newTable(w)
	table.SetHeader([]string{"Row", "Reasons"})
	for _, r := range rejected {
		reasons := make([]string, len(r.Reasons))
		for i, reason := range r.Reasons {
			reasons[i] = reason.String()
		}
		table.Append([]string{strconv.Itoa(r.RowIndex), strings.Join(reasons, "; ")})
	}
	table.Render()
}

func renderResult(w io.Writer, result *model.BatchResult) {
	status := color.New(color.FgGreen)
	if result.State == model.StateFailed {
		status = color.New(color.FgRed)
	}
	status.Fprintf(w, "\n%s import %s\n", result.Kind, result.State)

	table := newTable(w)
	table.SetHeader([]string{"Total", "Accepted", "Rejected", "Server Rejected"})
	table.Append([]string{
		strconv.Itoa(result.TotalRows),
		strconv.Itoa(result.AcceptedCount),
		strconv.Itoa(len(result.RejectedRows)),
		strconv.Itoa(len(result.ServerRejected)),
	})
	table.Render()

	renderRejected(w, result.RejectedRows)

	if len(result.ServerRejected) > 0 {
		color.New(color.FgYellow).Fprintf(w, "\nRejected by server (%d)\n", len(result.ServerRejected))
		table := newTable(w)
		table.SetHeader([]string{"Row", "Key", "Reason"})
		for _, r := range result.ServerRejected {
			table.Append([]string{strconv.Itoa(r.RowIndex), r.Record.Key(), r.Reason})
		}
		table.Render()
	}

	if result.Error != "" {
		fmt.Fprintln(w, result.Error)
	}
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	return table
}

package marksheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/errors"
)

// WriteTable writes the identity line, the subject table with its totals footer and one line per cutoff.
func (r Report) WriteTable(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s (%s) - %s\n", r.Identity.Name, r.Identity.RegisterNo, r.groupLabel()); err != nil {
		return err
	}

	withRemarks := r.hasRemarks()
	align := []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignCenter, tw.AlignCenter}
	header := []any{"Subject", "Marks", "Grade", "Result"}
	if withRemarks {
		align = append(align, tw.AlignLeft)
		header = append(header, "Remark")
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{PerColumn: align},
		},
	}))
	table.Header(header...)
	for _, row := range r.rows {
		cells := []any{row.Subject, strconv.Itoa(row.Mark), row.Grade, string(row.Verdict)}
		if withRemarks {
			cells = append(cells, row.Remark)
		}
		if err := table.Append(cells...); err != nil {
			return errors.Wrap(err, "appending row")
		}
	}
	footer := []any{"Total", strconv.Itoa(r.Total), "Average", fmt.Sprintf("%.2f", r.Average)}
	if withRemarks {
		footer = append(footer, "")
	}
	table.Footer(footer...)
	if err := table.Render(); err != nil {
		return errors.Wrap(err, "rendering table")
	}

	for _, c := range r.Cutoffs {
		if _, err := fmt.Fprintf(w, "%s Cutoff: %.2f\n", c.Name, c.Score); err != nil {
			return err
		}
	}
	return nil
}

// Table returns WriteTable's output as a string.
func (r Report) Table() string {
	var sb strings.Builder
	_ = r.WriteTable(&sb)
	return sb.String()
}

// Summary is the plain-text digest sent by SMS.
func (r Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", r.Identity.Name, r.Identity.RegisterNo)
	for _, row := range r.rows {
		fmt.Fprintf(&sb, "%s: %d %s %s\n", row.Subject, row.Mark, row.Grade, row.Verdict)
	}
	fmt.Fprintf(&sb, "Total: %d Average: %.2f", r.Total, r.Average)
	for _, c := range r.Cutoffs {
		fmt.Fprintf(&sb, "\n%s Cutoff: %.2f", c.Name, c.Score)
	}
	return sb.String()
}

func (r Report) groupLabel() string {
	if r.Semester > 0 {
		return fmt.Sprintf("%s, SEM %d", r.Group, r.Semester)
	}
	return r.Group
}

func (r Report) hasRemarks() bool {
	for _, row := range r.rows {
		if row.Remark != "" {
			return true
		}
	}
	return false
}

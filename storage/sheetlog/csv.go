// Package sheetlog keeps an append-only spreadsheet of generated marksheets.
package sheetlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core/marksheet"
)

var header = []string{"timestamp", "name", "register_no", "track", "group", "semester", "marks", "total", "average", "cutoffs"}

// CSVLog appends one row per marksheet to a CSV file. Existing rows are never rewritten.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

var _ marksheet.SubmissionLog = (*CSVLog)(nil)

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (l *CSVLog) Path() string { return l.path }

func (l *CSVLog) Append(ctx context.Context, r marksheet.Report, at time.Time) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating log directory")
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "opening submission log")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing submission log")
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat submission log")
	}

	w := csv.NewWriter(f)
	if fi.Size() == 0 {
		if err = w.Write(header); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}
	if err = w.Write(Record(r, at)); err != nil {
		return errors.Wrap(err, "writing row")
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing submission log")
}

// Record is the CSV row of r.
func Record(r marksheet.Report, at time.Time) []string {
	rows := r.Rows()
	marks := make([]string, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, fmt.Sprintf("%s=%d", row.Subject, row.Mark))
	}
	cutoffs := make([]string, 0, len(r.Cutoffs))
	for _, c := range r.Cutoffs {
		cutoffs = append(cutoffs, fmt.Sprintf("%s=%.2f", c.Name, c.Score))
	}

	semester := ""
	if r.Semester > 0 {
		semester = strconv.Itoa(r.Semester)
	}
	return []string{
		at.UTC().Format(time.RFC3339),
		r.Identity.Name,
		r.Identity.RegisterNo,
		r.Track.String(),
		r.Group,
		semester,
		strings.Join(marks, "; "),
		strconv.Itoa(r.Total),
		strconv.FormatFloat(r.Average, 'f', 2, 64),
		strings.Join(cutoffs, "; "),
	}
}

// Discard is used when no log path is configured.
type Discard struct{}

var _ marksheet.SubmissionLog = Discard{}

func (Discard) Append(context.Context, marksheet.Report, time.Time) error { return nil }

// Package grading maps raw marks to grades, pass/fail verdicts, remarks and composite cutoff scores.
package grading

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	MinMark = 0
	MaxMark = 100
)

// Verdicts
const (
	Pass Verdict = "Pass"
	Fail Verdict = "Fail"
)

type Verdict string

type (
	// Band is one row of a grade table: marks >= Min earn Grade.
	// Color is the hex background used for the row on printed marksheets.
	Band struct {
		Min   int    `mapstructure:"min" json:"min"`
		Grade string `mapstructure:"grade" json:"grade"`
		Color string `mapstructure:"color" json:"color,omitempty"`
	}

	RemarkBand struct {
		Min    int    `mapstructure:"min" json:"min"`
		Remark string `mapstructure:"remark" json:"remark"`
	}

	// Scheme is everything needed to evaluate a mark.
	// Bands and Remarks are ordered most-restrictive first.
	Scheme struct {
		Bands    []Band       `json:"bands"`
		PassMark int          `json:"pass_mark"`
		Remarks  []RemarkBand `json:"remarks,omitempty"`
	}

	Evaluation struct {
		Grade   string  `json:"grade"`
		Verdict Verdict `json:"result"`
		Remark  string  `json:"remark,omitempty"`
		Color   string  `json:"-"`
	}

	Evaluator struct {
		scheme Scheme
	}
)

// LetterBands is the A+ to D table. D is the failing grade at the default pass mark.
var LetterBands = []Band{
	{Min: 90, Grade: "A+", Color: "#66FF66"},
	{Min: 75, Grade: "A", Color: "#99FF99"},
	{Min: 60, Grade: "B", Color: "#FFFF99"},
	{Min: 50, Grade: "C", Color: "#FFCC99"},
	{Min: 0, Grade: "D", Color: "#FF6666"},
}

// OutstandingBands is the O to F table.
var OutstandingBands = []Band{
	{Min: 90, Grade: "O", Color: "#66FF66"},
	{Min: 80, Grade: "A+", Color: "#99FF99"},
	{Min: 70, Grade: "A", Color: "#CCFF99"},
	{Min: 60, Grade: "B", Color: "#FFFF99"},
	{Min: 50, Grade: "C", Color: "#FFCC99"},
	{Min: 35, Grade: "D", Color: "#FF9966"},
	{Min: 0, Grade: "F", Color: "#FF6666"},
}

// StandardRemarks is the coarse remark table.
var StandardRemarks = []RemarkBand{
	{Min: 75, Remark: "Excellent"},
	{Min: 50, Remark: "Average"},
	{Min: 0, Remark: "Needs improvement"},
}

// NewEvaluator validates scheme and returns an Evaluator bound to it.
func NewEvaluator(scheme Scheme) (*Evaluator, error) {
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	// own copies: a Scheme built from package presets must not alias them
	s := Scheme{
		Bands:    append([]Band(nil), scheme.Bands...),
		PassMark: scheme.PassMark,
		Remarks:  append([]RemarkBand(nil), scheme.Remarks...),
	}
	return &Evaluator{scheme: s}, nil
}

// Validate checks that the grade table covers [0,100] in strictly descending order
// and that the pass mark and remark table are usable.
func (s Scheme) Validate() error {
	if len(s.Bands) == 0 {
		return errors.Wrap(ErrInvalidScheme, "grade table is empty")
	}
	for i, b := range s.Bands {
		if strings.TrimSpace(b.Grade) == "" {
			return errors.Wrapf(ErrInvalidScheme, "band %d has no grade", i)
		}
		if b.Min < MinMark || b.Min > MaxMark {
			return errors.Wrapf(ErrInvalidScheme, "band %q lower bound %d is out of range", b.Grade, b.Min)
		}
		if i > 0 && b.Min >= s.Bands[i-1].Min {
			return errors.Wrapf(ErrInvalidScheme, "band %q is not below band %q", b.Grade, s.Bands[i-1].Grade)
		}
	}
	if last := s.Bands[len(s.Bands)-1]; last.Min != MinMark {
		return errors.Wrapf(ErrInvalidScheme, "lowest band %q must start at %d", last.Grade, MinMark)
	}

	if s.PassMark < MinMark || s.PassMark > MaxMark {
		return errors.Wrapf(ErrInvalidScheme, "pass mark %d is out of range", s.PassMark)
	}

	for i, r := range s.Remarks {
		if strings.TrimSpace(r.Remark) == "" {
			return errors.Wrapf(ErrInvalidScheme, "remark band %d has no remark", i)
		}
		if r.Min < MinMark || r.Min > MaxMark {
			return errors.Wrapf(ErrInvalidScheme, "remark %q lower bound %d is out of range", r.Remark, r.Min)
		}
		if i > 0 && r.Min >= s.Remarks[i-1].Min {
			return errors.Wrapf(ErrInvalidScheme, "remark %q is not below remark %q", r.Remark, s.Remarks[i-1].Remark)
		}
	}
	return nil
}

// Scheme returns a copy of the scheme the Evaluator was built with.
func (e *Evaluator) Scheme() Scheme {
	return Scheme{
		Bands:    append([]Band(nil), e.scheme.Bands...),
		PassMark: e.scheme.PassMark,
		Remarks:  append([]RemarkBand(nil), e.scheme.Remarks...),
	}
}

// Evaluate grades mark with the band of the highest lower bound <= mark.
func (e *Evaluator) Evaluate(mark int) (Evaluation, error) {
	if err := CheckMark(mark); err != nil {
		return Evaluation{}, err
	}

	var ev Evaluation
	for _, b := range e.scheme.Bands {
		if mark >= b.Min {
			ev.Grade = b.Grade
			ev.Color = b.Color
			break
		}
	}

	ev.Verdict = Fail
	if mark >= e.scheme.PassMark {
		ev.Verdict = Pass
	}

	for _, r := range e.scheme.Remarks {
		if mark >= r.Min {
			ev.Remark = r.Remark
			break
		}
	}
	return ev, nil
}

// Rank returns the position of grade in the table, 0 being the highest grade.
// It returns -1 for labels the table does not know.
func (e *Evaluator) Rank(grade string) int {
	for i, b := range e.scheme.Bands {
		if b.Grade == grade {
			return i
		}
	}
	return -1
}

// CheckMark fails with ErrInvalidMark when mark is outside [MinMark, MaxMark].
func CheckMark(mark int) error {
	if mark < MinMark || mark > MaxMark {
		return errors.Wrapf(ErrInvalidMark, "got %d", mark)
	}
	return nil
}

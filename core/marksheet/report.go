// Package marksheet assembles graded marksheets and delivers them as PDF, e-mail and SMS.
package marksheet

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/grading"
)

// minimum similarity for a curriculum subject to be suggested
const suggestRatio = 0.6

type (
	Identity struct {
		Institute    string  `json:"institute,omitempty"`
		Name         string  `json:"name"`
		RegisterNo   string  `json:"register_no"`
		DOB          string  `json:"dob,omitempty"`
		FatherName   string  `json:"father_name,omitempty"`
		MotherName   string  `json:"mother_name,omitempty"`
		Attendance   float64 `json:"attendance"`
		ParentEmail  string  `json:"parent_email,omitempty"`
		ParentMobile string  `json:"parent_mobile,omitempty"`
	}

	SubjectMark struct {
		Subject string `json:"subject"`
		Mark    int    `json:"mark"`
	}

	Submission struct {
		Identity
		Track    grading.Track
		Group    string
		Semester int
		Marks    []SubjectMark
	}

	Row struct {
		Subject string          `json:"subject"`
		Mark    int             `json:"mark"`
		Grade   string          `json:"grade"`
		Verdict grading.Verdict `json:"result"`
		Remark  string          `json:"remark,omitempty"`
		Color   string          `json:"-"`
	}

	// Report is a fully evaluated marksheet. It holds no timestamps or generated IDs:
	// assembling the same Submission twice yields equal Reports.
	Report struct {
		Identity Identity
		Track    grading.Track
		Group    string
		Semester int
		Total    int
		Average  float64
		Cutoffs  grading.Cutoffs

		rows []Row
	}

	Assembler struct {
		evaluator  *grading.Evaluator
		cutoffs    *grading.CutoffCalculator
		curriculum *Curriculum
	}
)

// NewAssembler fails when the curriculum names a cutoff the calculator does not know.
func NewAssembler(evaluator *grading.Evaluator, cutoffs *grading.CutoffCalculator, curriculum *Curriculum) (*Assembler, error) {
	for _, name := range curriculum.CutoffNames() {
		if !cutoffs.Has(name) {
			return nil, errors.Wrapf(grading.ErrUnknownCutoff, "%q", name)
		}
	}
	return &Assembler{evaluator: evaluator, cutoffs: cutoffs, curriculum: curriculum}, nil
}

func (a *Assembler) Evaluator() *grading.Evaluator { return a.evaluator }
func (a *Assembler) Curriculum() *Curriculum       { return a.curriculum }

// Assemble validates the submission against its curriculum, grades every subject
// and computes the total, average and cutoffs.
func (a *Assembler) Assemble(sub Submission) (Report, error) {
	if len(sub.Marks) == 0 {
		return Report{}, ErrNoSubjects
	}
	if sub.Attendance < 0 || sub.Attendance > 100 {
		return Report{}, errors.Wrapf(ErrInvalidAttendance, "got %v", sub.Attendance)
	}

	entry, err := a.curriculum.Lookup(sub.Track, sub.Group, sub.Semester)
	if err != nil {
		return Report{}, err
	}

	marks, err := matchSubjects(sub.Marks, entry.Subjects)
	if err != nil {
		return Report{}, err
	}

	rows := make([]Row, 0, len(entry.Subjects))
	var total int
	for _, subj := range entry.Subjects {
		mark := marks[subj]
		ev, err := a.evaluator.Evaluate(mark)
		if err != nil {
			return Report{}, errors.Wrap(err, subj)
		}
		rows = append(rows, Row{
			Subject: subj,
			Mark:    mark,
			Grade:   ev.Grade,
			Verdict: ev.Verdict,
			Remark:  ev.Remark,
			Color:   ev.Color,
		})
		total += mark
	}

	cutoffs, err := a.cutoffs.Compute(marks, sub.Track, entry.Cutoffs)
	if err != nil {
		return Report{}, err
	}

	// only college marksheets are per semester
	semester := sub.Semester
	if sub.Track != grading.TrackCollege {
		semester = 0
	}

	id := sub.Identity
	id.Name = core.CleanString(id.Name)
	id.RegisterNo = core.CleanString(id.RegisterNo)

	return Report{
		Identity: id,
		Track:    sub.Track,
		Group:    entry.Group,
		Semester: semester,
		Total:    total,
		Average:  float64(total) / float64(len(rows)),
		Cutoffs:  cutoffs,
		rows:     rows,
	}, nil
}

// matchSubjects maps the submitted marks onto the curriculum's subject names.
func matchSubjects(given []SubjectMark, subjects []string) (map[string]int, error) {
	canonical := make(map[string]string, len(subjects))
	for _, s := range subjects {
		canonical[strings.ToLower(s)] = s
	}

	marks := make(map[string]int, len(given))
	for _, sm := range given {
		name := core.CleanString(sm.Subject)
		subj, ok := canonical[strings.ToLower(name)]
		if !ok {
			if guess := closestSubject(name, subjects); guess != "" {
				return nil, errors.Wrapf(ErrUnknownSubject, "%q (did you mean %q?)", name, guess)
			}
			return nil, errors.Wrapf(ErrUnknownSubject, "%q", name)
		}
		if _, dup := marks[subj]; dup {
			return nil, errors.Wrap(ErrDuplicateSubject, subj)
		}
		marks[subj] = sm.Mark
	}

	var missing []string
	for _, s := range subjects {
		if _, ok := marks[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrap(ErrMarkRequired, strings.Join(missing, ", "))
	}
	return marks, nil
}

func closestSubject(name string, subjects []string) string {
	var best string
	bestRatio := suggestRatio
	a := strings.Split(strings.ToLower(name), "")
	for _, s := range subjects {
		r := difflib.NewMatcher(a, strings.Split(strings.ToLower(s), "")).Ratio()
		if r >= bestRatio {
			best, bestRatio = s, r
		}
	}
	return best
}

// Rows returns the subject rows in curriculum order.
func (r Report) Rows() []Row {
	return append([]Row(nil), r.rows...)
}

// Passed reports whether every subject was passed.
func (r Report) Passed() bool {
	for _, row := range r.rows {
		if row.Verdict != grading.Pass {
			return false
		}
	}
	return len(r.rows) > 0
}

// Marks returns subject -> mark.
func (r Report) Marks() map[string]int {
	m := make(map[string]int, len(r.rows))
	for _, row := range r.rows {
		m[row.Subject] = row.Mark
	}
	return m
}

type reportJSON struct {
	Identity Identity        `json:"student"`
	Track    grading.Track   `json:"track"`
	Group    string          `json:"group"`
	Semester int             `json:"semester,omitempty"`
	Rows     []Row           `json:"rows"`
	Total    int             `json:"total"`
	Average  float64         `json:"average"`
	Result   grading.Verdict `json:"result"`
	Cutoffs  grading.Cutoffs `json:"cutoffs"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	result := grading.Fail
	if r.Passed() {
		result = grading.Pass
	}
	cutoffs := r.Cutoffs
	if cutoffs == nil {
		cutoffs = grading.Cutoffs{}
	}
	return json.Marshal(reportJSON{
		Identity: r.Identity,
		Track:    r.Track,
		Group:    r.Group,
		Semester: r.Semester,
		Rows:     r.Rows(),
		Total:    r.Total,
		Average:  r.Average,
		Result:   result,
		Cutoffs:  cutoffs,
	})
}

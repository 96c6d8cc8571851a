package grading

import (
	"strings"

	"github.com/pkg/errors"
)

// Tracks
const (
	TrackSchool  Track = "school"
	TrackCollege Track = "college"
)

// Track is the top-level student category.
type Track string

// ParseTrack accepts the short names as well as the form labels ("School Student", "College Student").
func ParseTrack(s string) (Track, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " student")
	switch Track(s) {
	case TrackSchool:
		return TrackSchool, nil
	case TrackCollege:
		return TrackCollege, nil
	}
	return "", errors.Wrapf(ErrUnknownTrack, "%q", s)
}

func (t Track) String() string { return string(t) }

// Label is the human-readable name of the track.
func (t Track) Label() string {
	switch t {
	case TrackSchool:
		return "School Student"
	case TrackCollege:
		return "College Student"
	}
	return string(t)
}

type (
	// Formula scores Primary + mean(Averaged).
	Formula struct {
		Name     string
		Primary  string
		Averaged []string
	}

	Cutoff struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}

	// Cutoffs keeps the order in which they were requested.
	Cutoffs []Cutoff

	CutoffCalculator struct {
		formulas map[string]Formula
	}
)

// Built-in formulas
var (
	Engineering = Formula{Name: "Engineering", Primary: "Maths", Averaged: []string{"Physics", "Chemistry"}}
	Medical     = Formula{Name: "Medical", Primary: "Biology", Averaged: []string{"Physics", "Chemistry"}}
)

// NewCutoffCalculator knows Engineering and Medical plus any extra formulas.
func NewCutoffCalculator(extra ...Formula) *CutoffCalculator {
	c := &CutoffCalculator{formulas: make(map[string]Formula, 2+len(extra))}
	for _, f := range append([]Formula{Engineering, Medical}, extra...) {
		c.formulas[strings.ToLower(f.Name)] = f
	}
	return c
}

// Has reports whether a formula called name is known.
func (c *CutoffCalculator) Has(name string) bool {
	_, ok := c.formulas[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Compute scores the named cutoffs for marks. Only school students have cutoffs.
func (c *CutoffCalculator) Compute(marks map[string]int, track Track, names []string) (Cutoffs, error) {
	if track != TrackSchool || len(names) == 0 {
		return Cutoffs{}, nil
	}

	cutoffs := make(Cutoffs, 0, len(names))
	for _, name := range names {
		f, ok := c.formulas[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownCutoff, "%q", name)
		}
		score, err := f.Score(marks)
		if err != nil {
			return nil, err
		}
		cutoffs = append(cutoffs, Cutoff{Name: f.Name, Score: score})
	}
	return cutoffs, nil
}

// Score applies the formula. Every subject it names must be present in marks.
func (f Formula) Score(marks map[string]int) (float64, error) {
	primary, ok := marks[f.Primary]
	if !ok {
		return 0, errors.Wrapf(ErrMissingSubject, "%s cutoff needs %s", f.Name, f.Primary)
	}
	if len(f.Averaged) == 0 {
		return float64(primary), nil
	}

	var sum int
	for _, subj := range f.Averaged {
		m, ok := marks[subj]
		if !ok {
			return 0, errors.Wrapf(ErrMissingSubject, "%s cutoff needs %s", f.Name, subj)
		}
		sum += m
	}
	return float64(primary) + float64(sum)/float64(len(f.Averaged)), nil
}

// Get returns the score of the cutoff called name.
func (cs Cutoffs) Get(name string) (float64, bool) {
	for _, c := range cs {
		if strings.EqualFold(c.Name, name) {
			return c.Score, true
		}
	}
	return 0, false
}

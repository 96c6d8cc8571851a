package marksheet

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/grading"
)

type (
	// Curriculum resolves the ordered subject list of a (track, group, semester).
	Curriculum struct {
		entries []curriculumEntry
	}

	curriculumEntry struct {
		core.CurriculumEntry
		track grading.Track
	}
)

func NewCurriculum(entries []core.CurriculumEntry) (*Curriculum, error) {
	c := &Curriculum{entries: make([]curriculumEntry, 0, len(entries))}
	for i, e := range entries {
		track, err := grading.ParseTrack(e.Track)
		if err != nil {
			return nil, errors.Wrapf(err, "curriculum[%d]", i)
		}
		e.Track = track.String()
		e.Group = core.CleanString(e.Group)
		e.Subjects = cleanList(e.Subjects)
		e.Cutoffs = cleanList(e.Cutoffs)
		if e.Group == "" || len(e.Subjects) == 0 {
			return nil, errors.Errorf("curriculum[%d]: group and subjects are required", i)
		}
		if dup := firstDuplicate(e.Subjects); dup != "" {
			return nil, errors.Wrapf(ErrDuplicateSubject, "curriculum[%d]: %s", i, dup)
		}
		c.entries = append(c.entries, curriculumEntry{CurriculumEntry: e, track: track})
	}
	return c, nil
}

// Lookup prefers the entry of the exact semester, then the group's all-semester entry (semester 0).
func (c *Curriculum) Lookup(track grading.Track, group string, semester int) (core.CurriculumEntry, error) {
	group = core.CleanString(group)

	var fallback *curriculumEntry
	for i := range c.entries {
		e := &c.entries[i]
		if e.track != track || !strings.EqualFold(e.Group, group) {
			continue
		}
		if e.Semester == semester {
			return e.copy(), nil
		}
		if e.Semester == 0 && fallback == nil {
			fallback = e
		}
	}
	if fallback != nil {
		return fallback.copy(), nil
	}
	if semester > 0 {
		return core.CurriculumEntry{}, errors.Wrapf(ErrUnknownCurriculum, "%s / %s / semester %d", track.Label(), group, semester)
	}
	return core.CurriculumEntry{}, errors.Wrapf(ErrUnknownCurriculum, "%s / %s", track.Label(), group)
}

// Entries lists the whole table in configuration order.
func (c *Curriculum) Entries() []core.CurriculumEntry {
	out := make([]core.CurriculumEntry, 0, len(c.entries))
	for i := range c.entries {
		out = append(out, c.entries[i].copy())
	}
	return out
}

// CutoffNames returns every cutoff named by the table.
func (c *Curriculum) CutoffNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range c.entries {
		for _, n := range e.Cutoffs {
			if key := strings.ToLower(n); !seen[key] {
				seen[key] = true
				names = append(names, n)
			}
		}
	}
	return names
}

func (e *curriculumEntry) copy() core.CurriculumEntry {
	out := e.CurriculumEntry
	out.Subjects = append([]string(nil), e.Subjects...)
	out.Cutoffs = append([]string(nil), e.Cutoffs...)
	return out
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = core.CleanString(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstDuplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if seen[key] {
			return n
		}
		seen[key] = true
	}
	return ""
}

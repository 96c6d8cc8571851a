package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/marksheet/assets"
	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/grading"
	"github.com/trezcool/marksheet/core/marksheet"
	logsvc "github.com/trezcool/marksheet/services/logger"
)

// Curriculum mirrors config/marksheet.yaml.
func Curriculum() []core.CurriculumEntry {
	return []core.CurriculumEntry{
		{Track: "school", Group: "Biology", Subjects: []string{"Tamil", "English", "Maths", "Physics", "Chemistry", "Biology"}, Cutoffs: []string{"Engineering", "Medical"}},
		{Track: "school", Group: "Computer Science", Subjects: []string{"Tamil", "English", "Maths", "Physics", "Chemistry", "Computer Science"}, Cutoffs: []string{"Engineering"}},
		{Track: "school", Group: "Commerce", Subjects: []string{"Tamil", "English", "Accountancy", "Economics", "Commerce", "Maths"}},
		{Track: "school", Group: "History", Subjects: []string{"Tamil", "English", "History", "Civics", "Geography", "Economics"}},
		{Track: "college", Group: "CSE", Subjects: []string{"DS", "OS", "DBMS", "Python", "Java", "Networks"}},
		{Track: "college", Group: "ECE", Subjects: []string{"Signals", "Electronics", "Microprocessor", "Comm Systems", "Maths", "Physics"}},
		{Track: "college", Group: "Biotechnology", Subjects: []string{"Genetics", "Biochemistry", "Microbiology", "Cell Biology", "Chemistry", "Physics"}},
	}
}

// Config is a TEST configuration with the letter table, pass mark 50 and console providers.
func Config() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Marksheet",
		Institute: "Government Higher Secondary School",
		Grading: core.GradingConfig{
			Table:    "letter",
			PassMark: 50,
			Tables:   map[string][]grading.Band{"letter": grading.LetterBands, "outstanding": grading.OutstandingBands},
			Remarks:  grading.StandardRemarks,
		},
		Curriculum: Curriculum(),
		Notify: core.NotifyConfig{
			Timeout:       time.Second,
			EmailProvider: core.ProviderConsole,
			SMSProvider:   core.ProviderConsole,
		},
		Server: core.ServerConfig{ShutdownTimeout: time.Second},
	}
}

func Assembler(t *testing.T, conf *core.Config) *marksheet.Assembler {
	t.Helper()
	scheme, err := conf.Grading.Scheme()
	if err != nil {
		t.Fatalf("Assembler() failed: %v", err)
	}
	evaluator, err := grading.NewEvaluator(scheme)
	if err != nil {
		t.Fatalf("Assembler() failed: %v", err)
	}
	curriculum, err := marksheet.NewCurriculum(conf.Curriculum)
	if err != nil {
		t.Fatalf("Assembler() failed: %v", err)
	}
	asm, err := marksheet.NewAssembler(evaluator, grading.NewCutoffCalculator(), curriculum)
	if err != nil {
		t.Fatalf("Assembler() failed: %v", err)
	}
	return asm
}

func Templates(t *testing.T) *core.Templates {
	t.Helper()
	tmpls, err := core.ParseTemplates(assets.FS, assets.EmailDir, "Marksheet", true)
	if err != nil {
		t.Fatalf("Templates() failed: %v", err)
	}
	return tmpls
}

// BiologySubmission: total 420, Engineering 145, Medical 140.
func BiologySubmission() marksheet.Submission {
	return marksheet.Submission{
		Identity: marksheet.Identity{
			Name:         "Anu Priya",
			RegisterNo:   "REG-2024-001",
			DOB:          "2006-04-12",
			FatherName:   "Ravi",
			MotherName:   "Lakshmi",
			Attendance:   92.5,
			ParentEmail:  "parent@example.com",
			ParentMobile: "+919876543210",
		},
		Track: grading.TrackSchool,
		Group: "Biology",
		Marks: []marksheet.SubjectMark{
			{Subject: "Biology", Mark: 75},
			{Subject: "Tamil", Mark: 70},
			{Subject: "English", Mark: 65},
			{Subject: "Maths", Mark: 80},
			{Subject: "Physics", Mark: 70},
			{Subject: "Chemistry", Mark: 60},
		},
	}
}

// EmailSpy records every message and fails with Err when set.
type EmailSpy struct {
	mu       sync.Mutex
	Err      error
	Messages []*core.EmailMessage
}

func (s *EmailSpy) Send(_ context.Context, msg *core.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
	return s.Err
}

type SMSSpy struct {
	mu       sync.Mutex
	Err      error
	Messages []core.SMSMessage
}

func (s *SMSSpy) Send(_ context.Context, msg core.SMSMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
	return s.Err
}

// StubRenderer returns a fixed document.
type StubRenderer struct {
	Err     error
	Layouts []marksheet.Layout
}

var StubPDF = []byte("%PDF-1.3\n%stub\n")

func (r *StubRenderer) Render(_ context.Context, _ marksheet.Report, layout marksheet.Layout) ([]byte, error) {
	r.Layouts = append(r.Layouts, layout)
	if r.Err != nil {
		return nil, r.Err
	}
	return StubPDF, nil
}

type MemoryLog struct {
	Err     error
	Reports []marksheet.Report
}

func (l *MemoryLog) Append(_ context.Context, r marksheet.Report, _ time.Time) error {
	if l.Err != nil {
		return l.Err
	}
	l.Reports = append(l.Reports, r)
	return nil
}

// Logger discards everything.
func Logger() core.Logger { return logsvc.Discard{} }

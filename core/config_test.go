package core

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const baseYAML = `
institute: Government Higher Secondary School
grading:
  table: letter
  pass_mark: 50
  tables:
    letter:
      - {min: 90, grade: A+, color: "#66FF66"}
      - {min: 75, grade: A, color: "#99FF99"}
      - {min: 60, grade: B, color: "#FFFF99"}
      - {min: 50, grade: C, color: "#FFCC99"}
      - {min: 0, grade: D, color: "#FF6666"}
  remarks:
    - {min: 75, remark: Excellent}
    - {min: 0, remark: Needs improvement}
curriculum:
  - track: school
    group: Biology
    subjects: [Tamil, English, Maths, Physics, Chemistry, Biology]
    cutoffs: [Engineering, Medical]
  - track: college
    group: CSE
    subjects: [DS, OS]
`

func readYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	return v
}

func TestLoadConfig(t *testing.T) {
	conf, err := LoadConfig(readYAML(t, baseYAML))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if conf.Institute != "Government Higher Secondary School" {
		t.Errorf("Institute = %q", conf.Institute)
	}
	if conf.Grading.PassMark != 50 {
		t.Errorf("PassMark = %d; want 50", conf.Grading.PassMark)
	}
	scheme, err := conf.Grading.Scheme()
	if err != nil {
		t.Fatalf("Scheme() error = %v", err)
	}
	if len(scheme.Bands) != 5 || scheme.Bands[0].Grade != "A+" || scheme.Bands[0].Color != "#66FF66" {
		t.Errorf("Bands = %+v", scheme.Bands)
	}
	if len(scheme.Remarks) != 2 {
		t.Errorf("Remarks = %+v", scheme.Remarks)
	}
	if len(conf.Curriculum) != 2 {
		t.Fatalf("Curriculum = %+v", conf.Curriculum)
	}
	if got := conf.Curriculum[0].Cutoffs; len(got) != 2 || got[1] != "Medical" {
		t.Errorf("Curriculum[0].Cutoffs = %v", got)
	}

	// defaults
	if conf.Notify.Timeout != 10*time.Second {
		t.Errorf("Notify.Timeout = %v; want 10s", conf.Notify.Timeout)
	}
	if conf.Notify.EmailProvider != ProviderConsole || conf.Notify.SMSProvider != ProviderConsole {
		t.Errorf("providers = %s, %s; want console", conf.Notify.EmailProvider, conf.Notify.SMSProvider)
	}
	if conf.Notify.FromEmail.Name != "Marksheet" {
		t.Errorf("FromEmail.Name = %q; want app name", conf.Notify.FromEmail.Name)
	}
	if conf.Env != "DEV" {
		t.Errorf("Env = %q; want DEV", conf.Env)
	}
}

func TestLoadConfig_invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "missing pass mark",
			doc:     strings.Replace(baseYAML, "  pass_mark: 50\n", "", 1),
			wantMsg: "grading.pass_mark is required",
		},
		{
			name:    "unknown table",
			doc:     strings.Replace(baseYAML, "table: letter", "table: roman", 1),
			wantMsg: `grading.table "roman" is not defined`,
		},
		{
			name:    "pass mark out of range",
			doc:     strings.Replace(baseYAML, "pass_mark: 50", "pass_mark: 150", 1),
			wantMsg: "pass mark 150 is out of range",
		},
		{
			name:    "unknown track",
			doc:     strings.Replace(baseYAML, "track: college", "track: university", 1),
			wantMsg: "unknown track",
		},
		{
			name:    "empty curriculum",
			doc:     baseYAML[:strings.Index(baseYAML, "curriculum:")],
			wantMsg: "curriculum is empty",
		},
		{
			name:    "unknown provider",
			doc:     baseYAML + "notify:\n  email: pigeon\n",
			wantMsg: `unknown email provider "pigeon"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(readYAML(t, tt.doc))
			if err == nil {
				t.Fatal("LoadConfig() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("LoadConfig() error = %q; want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

package assets_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/trezcool/marksheet/assets"
	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/tests"
)

func TestFS_emailTemplates(t *testing.T) {
	for _, name := range []string{"_base.txt", "_base.gohtml", "marksheet.txt", "marksheet.gohtml"} {
		if _, err := fs.Stat(assets.FS, assets.EmailDir+"/"+name); err != nil {
			t.Errorf("fs.Stat(%s) error = %v", name, err)
		}
	}

	tmpls, err := core.ParseTemplates(assets.FS, assets.EmailDir, "Marksheet", true)
	if err != nil {
		t.Fatalf("ParseTemplates() error = %v", err)
	}
	if !tmpls.Has("marksheet") {
		t.Fatal("Has(marksheet) = false")
	}

	conf := testutil.Config()
	report, err := testutil.Assembler(t, conf).Assemble(testutil.BiologySubmission())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	msg := core.EmailMessage{TemplateName: "marksheet", TemplateData: report}
	if err := msg.Render(tmpls); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, content := range []string{msg.TextContent, msg.HTMLContent} {
		if !strings.Contains(content, "Please find attached your child's marksheet.") {
			t.Errorf("rendered body = %q", content)
		}
	}
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/grading"
	"github.com/trezcool/marksheet/core/marksheet"
)

var (
	readFileFunc  = os.ReadFile  // mockable
	writeFileFunc = os.WriteFile // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc *marksheet.Service
	out io.Writer
}

type (
	// submissionFile is the JSON document read by the -file flag.
	submissionFile struct {
		marksheet.Identity
		Track    string     `json:"track"`
		Group    string     `json:"group"`
		Semester int        `json:"semester"`
		Marks    []fileMark `json:"marks"`
	}

	// fileMark keeps an absent mark apart from a zero.
	fileMark struct {
		Subject string `json:"subject"`
		Mark    *int   `json:"mark"`
	}
)

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  curriculum - list the groups and their subjects")
	fmt.Fprintln(cli.out, "  grade -file FILE - print the marksheet table")
	fmt.Fprintln(cli.out, "  pdf -file FILE [-out PATH] - write the marksheet PDF")
	fmt.Fprintln(cli.out, "  send -file FILE [-email] [-sms] - log the marksheet and notify the parent")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	gradeCmd := flag.NewFlagSet("grade", flag.ContinueOnError)
	gradeFile := gradeCmd.String("file", "", "JSON submission")

	pdfCmd := flag.NewFlagSet("pdf", flag.ContinueOnError)
	pdfFile := pdfCmd.String("file", "", "JSON submission")
	pdfOut := pdfCmd.String("out", "", "output path (default: <name>_marksheet.pdf)")

	sendCmd := flag.NewFlagSet("send", flag.ContinueOnError)
	sendFile := sendCmd.String("file", "", "JSON submission")
	sendEmail := sendCmd.Bool("email", false, "e-mail the PDF to the parent")
	sendSMS := sendCmd.Bool("sms", false, "text the summary to the parent")

	for _, fs := range []*flag.FlagSet{gradeCmd, pdfCmd, sendCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "curriculum":
		return cli.curriculum()
	case "grade":
		sub, err := cli.parse(gradeCmd, gradeFile, args[2:])
		if err != nil {
			return err
		}
		return cli.grade(sub)
	case "pdf":
		sub, err := cli.parse(pdfCmd, pdfFile, args[2:])
		if err != nil {
			return err
		}
		return cli.pdf(sub, *pdfOut)
	case "send":
		sub, err := cli.parse(sendCmd, sendFile, args[2:])
		if err != nil {
			return err
		}
		var chs []marksheet.Channel
		if *sendEmail {
			chs = append(chs, marksheet.ChannelEmail)
		}
		if *sendSMS {
			chs = append(chs, marksheet.ChannelSMS)
		}
		return cli.send(sub, chs)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) parse(fs *flag.FlagSet, file *string, args []string) (marksheet.Submission, error) {
	if err := fs.Parse(args); err != nil {
		return marksheet.Submission{}, errHelp
	}
	if *file == "" {
		fs.Usage()
		return marksheet.Submission{}, errHelp
	}

	data, err := readFileFunc(*file)
	if err != nil {
		return marksheet.Submission{}, errors.Wrap(err, "reading submission")
	}
	var sf submissionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return marksheet.Submission{}, errors.Wrapf(err, "decoding %s", *file)
	}
	track, err := grading.ParseTrack(sf.Track)
	if err != nil {
		return marksheet.Submission{}, err
	}

	var fields []core.FieldError
	marks := make([]marksheet.SubjectMark, 0, len(sf.Marks))
	for i, m := range sf.Marks {
		if m.Mark == nil {
			fields = append(fields, core.FieldError{Field: fmt.Sprintf("marks[%d].mark", i), Error: "this field is required"})
			continue
		}
		marks = append(marks, marksheet.SubjectMark{Subject: m.Subject, Mark: *m.Mark})
	}
	if len(fields) > 0 {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			msgs = append(msgs, f.Field+": "+f.Error)
		}
		err := errors.Errorf("invalid submission %s: %s", *file, strings.Join(msgs, "; "))
		return marksheet.Submission{}, core.NewValidationError(err, fields...)
	}

	return marksheet.Submission{
		Identity: sf.Identity,
		Track:    track,
		Group:    sf.Group,
		Semester: sf.Semester,
		Marks:    marks,
	}, nil
}

func (cli *commandLine) curriculum() error {
	for _, e := range cli.svc.Assembler().Curriculum().Entries() {
		group := e.Group
		if e.Semester > 0 {
			group = fmt.Sprintf("%s (SEM %d)", group, e.Semester)
		}
		fmt.Fprintf(cli.out, "%s / %s: %s\n", e.Track, group, strings.Join(e.Subjects, ", "))
	}
	return nil
}

func (cli *commandLine) grade(sub marksheet.Submission) error {
	report, err := cli.svc.Preview(sub)
	if err != nil {
		return err
	}
	return report.WriteTable(cli.out)
}

func (cli *commandLine) pdf(sub marksheet.Submission, out string) error {
	report, doc, err := cli.svc.Document(context.Background(), sub, marksheet.Layout{})
	if err != nil {
		return err
	}
	if out == "" {
		out = core.MarksheetFilename(report.Identity.Name)
	}
	if err := writeFileFunc(out, doc, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	fmt.Fprintf(cli.out, "wrote %s (%d bytes)\n", out, len(doc))
	return nil
}

func (cli *commandLine) send(sub marksheet.Submission, chs []marksheet.Channel) error {
	res, err := cli.svc.Generate(context.Background(), marksheet.Request{Submission: sub, Notify: chs})
	if err != nil {
		return err
	}

	if res.LogErr != nil {
		fmt.Fprintf(cli.out, "log: %v\n", res.LogErr)
	} else {
		fmt.Fprintln(cli.out, "log: ok")
	}
	var failed bool
	for _, d := range res.Deliveries {
		if d.OK {
			fmt.Fprintf(cli.out, "%s: sent\n", d.Channel)
			continue
		}
		failed = true
		fmt.Fprintf(cli.out, "%s: %s\n", d.Channel, d.Message)
	}
	if failed {
		return errors.New("some notifications were not delivered")
	}
	return nil
}

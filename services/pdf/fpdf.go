// Package pdfsvc renders marksheets as A4 PDF documents.
package pdfsvc

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core/marksheet"
)

const (
	heading   = "ANNUAL EXAMINATION RESULT"
	font      = "Helvetica"
	margin    = 10.0
	photoSize = 30.0 // mm
	rowHeight = 9.0
)

var (
	ErrUnsupportedPhoto = errors.New("photo must be a PNG or JPEG image")

	headerFill = rgb{0x00, 0x33, 0x66}
	white      = rgb{0xFF, 0xFF, 0xFF}
	black      = rgb{0, 0, 0}

	columns = []column{
		{title: "Subject", width: 70, align: "L"},
		{title: "Marks", width: 35, align: "C"},
		{title: "Grade", width: 35, align: "C"},
		{title: "Pass / Fail", width: 50, align: "C"},
	}
)

type (
	rgb    struct{ r, g, b int }
	column struct {
		title string
		width float64
		align string
	}

	Renderer struct{}
)

var _ marksheet.Renderer = (*Renderer)(nil)

func NewRenderer() *Renderer { return &Renderer{} }

func (Renderer) Render(ctx context.Context, r marksheet.Report, layout marksheet.Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetTitle(r.Identity.Name+" marksheet", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252

	if len(layout.Photo) > 0 {
		if err := placePhoto(pdf, layout.Photo); err != nil {
			return nil, err
		}
	}

	// title
	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(0, 12, tr(layout.Institute), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// student details
	pdf.SetFont(font, "", 11)
	for _, line := range infoLines(r) {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(font, "B", 14)
	pdf.CellFormat(0, 10, heading, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// subject table
	pdf.SetFont(font, "B", 11)
	setFill(pdf, headerFill)
	setText(pdf, white)
	for _, c := range columns {
		pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(font, "", 11)
	setText(pdf, black)
	for _, row := range r.Rows() {
		fill, ok := parseHex(row.Color)
		if ok {
			setFill(pdf, fill)
		}
		cells := []string{row.Subject, strconv.Itoa(row.Mark), row.Grade, string(row.Verdict)}
		for i, c := range columns {
			pdf.CellFormat(c.width, rowHeight, tr(cells[i]), "1", 0, c.align, ok, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// totals
	pdf.SetFont(font, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total: %d    Average: %.2f", r.Total, r.Average), "", 1, "L", false, 0, "")
	for _, c := range r.Cutoffs {
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s Cutoff: %.2f", c.Name, c.Score)), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return buf.Bytes(), nil
}

func infoLines(r marksheet.Report) []string {
	id := r.Identity
	lines := []string{
		"Name: " + id.Name,
		"Register No: " + id.RegisterNo,
	}
	if id.DOB != "" {
		lines = append(lines, "DOB: "+id.DOB)
	}
	if id.FatherName != "" {
		lines = append(lines, "Father: "+id.FatherName)
	}
	if id.MotherName != "" {
		lines = append(lines, "Mother: "+id.MotherName)
	}
	group := r.Group
	if r.Semester > 0 {
		group = fmt.Sprintf("%s (SEM %d)", r.Group, r.Semester)
	}
	lines = append(lines,
		fmt.Sprintf("%s: %s", r.Track.Label(), group),
		"Attendance: "+strconv.FormatFloat(id.Attendance, 'f', -1, 64)+"%",
	)
	return lines
}

// placePhoto draws the student photo in the top right corner.
func placePhoto(pdf *fpdf.Fpdf, photo []byte) error {
	var imgType string
	switch mt := mimetype.Detect(photo); {
	case mt.Is("image/png"):
		imgType = "PNG"
	case mt.Is("image/jpeg"):
		imgType = "JPG"
	default:
		return errors.Wrapf(ErrUnsupportedPhoto, "got %s", mt.String())
	}

	opts := fpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader("photo", opts, bytes.NewReader(photo))
	if pdf.Err() {
		return errors.Wrap(pdf.Error(), "reading photo")
	}
	pageW, _ := pdf.GetPageSize()
	pdf.ImageOptions("photo", pageW-margin-photoSize, margin, photoSize, photoSize, false, opts, 0, "")
	return nil
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }

// parseHex reads "#RRGGBB".
func parseHex(s string) (rgb, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)}, true
}

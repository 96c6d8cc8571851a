package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"

	. "github.com/trezcool/marksheet/apps/api/echo"
	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/grading"
	"github.com/trezcool/marksheet/tests"
)

func intPtr(i int) *int { return &i }

func validRequest() MarksheetRequest {
	return MarksheetRequest{
		Name:         "Anu Priya",
		RegisterNo:   "REG-2024-001",
		DOB:          "2006-04-12",
		FatherName:   "Ravi",
		MotherName:   "Lakshmi",
		Attendance:   92.5,
		Track:        "School Student",
		Group:        "Biology",
		ParentEmail:  "parent@example.com",
		ParentMobile: "+919876543210",
		Marks: []SubjectMarkRequest{
			{Subject: "Tamil", Mark: intPtr(70)},
			{Subject: "English", Mark: intPtr(65)},
			{Subject: "Maths", Mark: intPtr(80)},
			{Subject: "Physics", Mark: intPtr(70)},
			{Subject: "Chemistry", Mark: intPtr(60)},
			{Subject: "Biology", Mark: intPtr(75)},
		},
	}
}

func requestWith(fn func(*MarksheetRequest)) MarksheetRequest {
	r := validRequest()
	fn(&r)
	return r
}

func Test_home(t *testing.T) {
	app, _ := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "Welcome to Marksheet API!" {
		t.Errorf("failed! %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("failed! missing request id")
	}
}

func Test_marksheetApi_reference(t *testing.T) {
	app, _ := setup(t)

	tests := []httpTest{
		{
			name:     "curriculum",
			method:   http.MethodGet,
			path:     "/v1/curriculum",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, testutil.Curriculum()),
		},
		{
			name:     "grading",
			method:   http.MethodGet,
			path:     "/v1/grading/",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, grading.Scheme{Bands: grading.LetterBands, PassMark: 50, Remarks: grading.StandardRemarks}),
		},
		{
			name:     "not found",
			method:   http.MethodGet,
			path:     "/v1/students",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Not Found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_marksheetApi_preview(t *testing.T) {
	app, deps := setup(t)
	path := "/v1/marksheets/preview"

	req, rec := newRequest(http.MethodPost, path, marchallObj(t, validRequest()))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Report struct {
			Total   int              `json:"total"`
			Average float64          `json:"average"`
			Result  string           `json:"result"`
			Cutoffs []grading.Cutoff `json:"cutoffs"`
		} `json:"report"`
		Table string `json:"table"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if got.Report.Total != 420 || got.Report.Average != 70 || got.Report.Result != "Pass" || len(got.Report.Cutoffs) != 2 {
		t.Errorf("failed! report = %+v", got.Report)
	}
	if !strings.Contains(got.Table, "Engineering Cutoff: 145.00") {
		t.Errorf("failed! table = %s", got.Table)
	}
	if len(deps.log.Reports) != 0 || len(deps.email.Messages) != 0 {
		t.Error("failed! preview performed I/O")
	}

	tests := []httpTest{
		{
			name:     "mark out of range",
			body:     marchallObj(t, requestWith(func(r *MarksheetRequest) { r.Marks[0].Mark = intPtr(120) })),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Tamil: got 120: mark must be between 0 and 100"}),
		},
		{
			name:     "no marks",
			body:     marchallObj(t, requestWith(func(r *MarksheetRequest) { r.Marks = nil })),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "at least one subject mark is required"}),
		},
		{
			name:     "unknown group",
			body:     marchallObj(t, requestWith(func(r *MarksheetRequest) { r.Group = "Law" })),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "School Student / Law: no curriculum for this track and group"}),
		},
		{
			name:     "missing subject",
			body:     marchallObj(t, requestWith(func(r *MarksheetRequest) { r.Marks = r.Marks[1:] })),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Tamil: mark is required for every curriculum subject"}),
		},
		{
			name:     "duplicate subject",
			body:     marchallObj(t, requestWith(func(r *MarksheetRequest) { r.Marks[1].Subject = "tamil" })),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Tamil: subject entered more than once"}),
		},
		{
			name: "invalid fields",
			body: marchallObj(t, requestWith(func(r *MarksheetRequest) {
				r.Name = "  "
				r.Track = "university"
				r.ParentEmail = "not-an-email"
				r.Marks[2].Mark = nil
			})),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":          "this field cannot be blank",
				"track":         "must be one of: school, college",
				"parent_email":  "parent_email must be a valid email address",
				"marks[2].mark": "this field is required",
			}),
		},
		{
			name:     "sms without mobile",
			body:     marchallObj(t, requestWith(func(r *MarksheetRequest) { r.ParentMobile = ""; r.SendSMS = true })),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"parent_mobile": "required to send the marksheet by sms"}),
		},
		{
			name:     "malformed json",
			body:     []byte(`{"name": `),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, path, tt.body)
			app.ServeHTTP(rec, req)
			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_marksheetApi_pdf(t *testing.T) {
	app, deps := setup(t)

	req, rec := newRequest(http.MethodPost, "/v1/marksheets/pdf", marchallObj(t, validRequest()))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("failed! Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=Anu_Priya_marksheet.pdf" {
		t.Errorf("failed! Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("failed! body is not a pdf")
	}
	if len(deps.log.Reports) != 0 {
		t.Error("failed! pdf download was logged")
	}
}

func Test_marksheetApi_generate(t *testing.T) {
	app, deps := setup(t)
	deps.email.Err = errors.Wrap(core.ErrTransportFailure, "sendgrid: status 401")

	body := marchallObj(t, requestWith(func(r *MarksheetRequest) { r.SendEmail = true; r.SendSMS = true }))
	req, rec := newRequest(http.MethodPost, "/v1/marksheets", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Filename   string `json:"filename"`
		PDF        []byte `json:"pdf"`
		Logged     bool   `json:"logged"`
		Deliveries []struct {
			Channel string `json:"channel"`
			OK      bool   `json:"ok"`
			Error   string `json:"error"`
		} `json:"deliveries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}

	if got.Filename != "Anu_Priya_marksheet.pdf" || !bytes.HasPrefix(got.PDF, []byte("%PDF-")) {
		t.Errorf("failed! filename = %q, pdf = %d bytes", got.Filename, len(got.PDF))
	}
	if !got.Logged || len(deps.log.Reports) != 1 {
		t.Errorf("failed! logged = %v, rows = %d", got.Logged, len(deps.log.Reports))
	}
	if len(got.Deliveries) != 2 {
		t.Fatalf("failed! deliveries = %+v", got.Deliveries)
	}
	if d := got.Deliveries[0]; d.Channel != "email" || d.OK || !strings.Contains(d.Error, "notification transport failure") {
		t.Errorf("failed! email delivery = %+v", d)
	}
	if d := got.Deliveries[1]; d.Channel != "sms" || !d.OK {
		t.Errorf("failed! sms delivery = %+v", d)
	}
	if len(deps.email.Messages) != 1 || len(deps.sms.Messages) != 1 {
		t.Errorf("failed! %d emails, %d sms; want one attempt each", len(deps.email.Messages), len(deps.sms.Messages))
	}
}

package echoapi

import (
	"mime"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/grading"
	"github.com/trezcool/marksheet/core/marksheet"
)

type (
	SubjectMarkRequest struct {
		Subject string `json:"subject" validate:"notblank"`
		Mark    *int   `json:"mark" validate:"required"`
	}

	MarksheetRequest struct {
		Institute    string               `json:"institute"`
		Name         string               `json:"name" validate:"notblank"`
		RegisterNo   string               `json:"register_no" validate:"notblank"`
		DOB          string               `json:"dob"`
		FatherName   string               `json:"father_name"`
		MotherName   string               `json:"mother_name"`
		Attendance   float64              `json:"attendance" validate:"gte=0,lte=100"`
		Track        string               `json:"track" validate:"required,track"`
		Group        string               `json:"group" validate:"notblank"`
		Semester     int                  `json:"semester" validate:"gte=0,lte=8"`
		Marks        []SubjectMarkRequest `json:"marks" validate:"dive"`
		ParentEmail  string               `json:"parent_email" validate:"omitempty,email"`
		ParentMobile string               `json:"parent_mobile" validate:"omitempty,e164"`
		Photo        []byte               `json:"photo,omitempty"` // base64 PNG or JPEG
		SendEmail    bool                 `json:"send_email"`
		SendSMS      bool                 `json:"send_sms"`
	}

	PreviewResponse struct {
		Report marksheet.Report `json:"report"`
		Table  string           `json:"table"`
	}

	GenerateResponse struct {
		Report     marksheet.Report     `json:"report"`
		Filename   string               `json:"filename"`
		PDF        []byte               `json:"pdf"`
		Logged     bool                 `json:"logged"`
		Deliveries []marksheet.Delivery `json:"deliveries"`
	}
)

// Validate checks the request fields, then that a recipient is given for every requested channel.
func (r MarksheetRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	var fields []core.FieldError
	if err := validate.Struct(r); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return errors.Wrap(err, "validating MarksheetRequest")
		}
		fields = core.TranslateErrors(vErrs, translator)
	}
	if r.SendEmail && core.CleanString(r.ParentEmail) == "" {
		fields = append(fields, core.FieldError{Field: "parent_email", Error: "required to send the marksheet by email"})
	}
	if r.SendSMS && core.CleanString(r.ParentMobile) == "" {
		fields = append(fields, core.FieldError{Field: "parent_mobile", Error: "required to send the marksheet by sms"})
	}
	if len(fields) > 0 {
		return core.NewValidationError(errors.New("invalid marksheet request"), fields...)
	}
	return nil
}

func (r MarksheetRequest) Submission() (marksheet.Submission, error) {
	track, err := grading.ParseTrack(r.Track)
	if err != nil {
		return marksheet.Submission{}, err
	}
	marks := make([]marksheet.SubjectMark, 0, len(r.Marks))
	for _, m := range r.Marks {
		marks = append(marks, marksheet.SubjectMark{Subject: m.Subject, Mark: *m.Mark})
	}
	return marksheet.Submission{
		Identity: marksheet.Identity{
			Institute:    core.CleanString(r.Institute),
			Name:         r.Name,
			RegisterNo:   r.RegisterNo,
			DOB:          core.CleanString(r.DOB),
			FatherName:   core.CleanString(r.FatherName),
			MotherName:   core.CleanString(r.MotherName),
			Attendance:   r.Attendance,
			ParentEmail:  core.CleanString(r.ParentEmail),
			ParentMobile: core.CleanString(r.ParentMobile),
		},
		Track:    track,
		Group:    r.Group,
		Semester: r.Semester,
		Marks:    marks,
	}, nil
}

func (r MarksheetRequest) Layout() marksheet.Layout {
	return marksheet.Layout{Institute: core.CleanString(r.Institute), Photo: r.Photo}
}

func (r MarksheetRequest) Channels() []marksheet.Channel {
	var chs []marksheet.Channel
	if r.SendEmail {
		chs = append(chs, marksheet.ChannelEmail)
	}
	if r.SendSMS {
		chs = append(chs, marksheet.ChannelSMS)
	}
	return chs
}

type marksheetApi struct {
	svc        *marksheet.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerMarksheetAPI(g *echo.Group, svc *marksheet.Service, validate *validator.Validate, translator ut.Translator) {
	api := marksheetApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	g.GET("/curriculum", api.curriculum)
	g.GET("/grading", api.grading)

	mg := g.Group("/marksheets")
	mg.POST("", api.generate)
	mg.POST("/preview", api.preview)
	mg.POST("/pdf", api.pdf)
}

// Handlers

func (api *marksheetApi) curriculum(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Assembler().Curriculum().Entries())
}

func (api *marksheetApi) grading(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Assembler().Evaluator().Scheme())
}

func (api *marksheetApi) preview(ctx echo.Context) error {
	_, sub, err := api.bind(ctx)
	if err != nil {
		return err
	}

	// domain errors reach the client as they are
	report, err := api.svc.Preview(sub)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, PreviewResponse{Report: report, Table: report.Table()})
}

func (api *marksheetApi) pdf(ctx echo.Context) error {
	data, sub, err := api.bind(ctx)
	if err != nil {
		return err
	}

	report, doc, err := api.svc.Document(ctx.Request().Context(), sub, data.Layout())
	if err != nil {
		return err
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": core.MarksheetFilename(report.Identity.Name)})
	ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return ctx.Blob(http.StatusOK, "application/pdf", doc)
}

func (api *marksheetApi) generate(ctx echo.Context) error {
	data, sub, err := api.bind(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.Generate(ctx.Request().Context(), marksheet.Request{
		Submission: sub,
		Layout:     data.Layout(),
		Notify:     data.Channels(),
	})
	if err != nil {
		return err
	}

	deliveries := res.Deliveries
	if deliveries == nil {
		deliveries = []marksheet.Delivery{}
	}
	return ctx.JSON(http.StatusOK, GenerateResponse{
		Report:     res.Report,
		Filename:   res.Filename,
		PDF:        res.PDF,
		Logged:     res.LogErr == nil,
		Deliveries: deliveries,
	})
}

func (api *marksheetApi) bind(ctx echo.Context) (MarksheetRequest, marksheet.Submission, error) {
	var data MarksheetRequest
	if err := ctx.Bind(&data); err != nil {
		return data, marksheet.Submission{}, errors.Wrap(err, "binding to MarksheetRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return data, marksheet.Submission{}, err
	}
	sub, err := data.Submission()
	return data, sub, err
}

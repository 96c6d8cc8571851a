package echoapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core/grading"
	logsvc "github.com/trezcool/marksheet/services/logger"
)

// multiError has a slice dynamic type, so it cannot be used as a map key.
type multiError []string

func (e multiError) Error() string { return strings.Join(e, "; ") }

func Test_appHTTPErrorHandler(t *testing.T) {
	handler := newAppHTTPErrorHandler(logsvc.Discard{}, nil, func() {})

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "domain error", err: errors.Wrap(grading.ErrInvalidMark, "Tamil"), wantCode: http.StatusBadRequest, wantBody: `{"error":"Tamil: mark must be between 0 and 100"}`},
		{name: "unhashable cause", err: errors.Wrap(multiError{"a", "b"}, "saving"), wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/marksheets", nil), rec)

			handler(tt.err, ctx)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s; want %s", got, tt.wantBody)
			}
		})
	}
}

package logsvc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/marksheet/core"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	std := logrus.New()
	std.SetOutput(&buf)
	std.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	l := NewRollbarLogger(std, &core.Config{Env: "TEST"})
	l.Enable(false)

	l.Error("delivery failed", errors.New("timeout"), map[string]interface{}{"channel": "sms"}, 42)

	out := buf.String()
	for _, want := range []string{`level=error`, `msg="delivery failed"`, `error=timeout`, `channel=sms`, `extra="[42]"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q is missing %q", out, want)
		}
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug logged at info level: %q", buf.String())
	}
}

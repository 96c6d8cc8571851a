package dig_container

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/marksheet/apps/api/echo"
	"github.com/trezcool/marksheet/assets"
	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/grading"
	"github.com/trezcool/marksheet/core/marksheet"
	emailsvc "github.com/trezcool/marksheet/services/email"
	logsvc "github.com/trezcool/marksheet/services/logger"
	pdfsvc "github.com/trezcool/marksheet/services/pdf"
	smssvc "github.com/trezcool/marksheet/services/sms"
	"github.com/trezcool/marksheet/storage/sheetlog"
)

type ServerParams struct {
	dig.In

	Logger     core.Logger
	Marksheets *marksheet.Service
	Validate   *validator.Validate
	Translator ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newTemplates(conf *core.Config) (*core.Templates, error) {
	return core.ParseTemplates(assets.FS, assets.EmailDir, conf.AppName, conf.Debug || conf.TestMode)
}

func newEmailService(conf *core.Config) (core.EmailService, error) {
	switch conf.Notify.EmailProvider {
	case core.ProviderSendgrid:
		return emailsvc.NewSendgridService(conf)
	case core.ProviderSES:
		return emailsvc.NewSESService(context.Background(), conf)
	default:
		return emailsvc.NewConsoleService(conf), nil
	}
}

func newSMSService(conf *core.Config) (core.SMSService, error) {
	if conf.Notify.SMSProvider == core.ProviderTwilio {
		return smssvc.NewTwilioService(conf)
	}
	return smssvc.NewConsoleService(), nil
}

func newSubmissionLog(conf *core.Config) marksheet.SubmissionLog {
	if conf.SheetLog.Path == "" {
		return sheetlog.Discard{}
	}
	return sheetlog.NewCSVLog(conf.SheetLog.Path)
}

func newAssembler(conf *core.Config) (*marksheet.Assembler, error) {
	scheme, err := conf.Grading.Scheme()
	if err != nil {
		return nil, err
	}
	evaluator, err := grading.NewEvaluator(scheme)
	if err != nil {
		return nil, err
	}
	curriculum, err := marksheet.NewCurriculum(conf.Curriculum)
	if err != nil {
		return nil, err
	}
	return marksheet.NewAssembler(evaluator, grading.NewCutoffCalculator(), curriculum)
}

func newShutdownChannel() chan os.Signal {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	return shutdown
}

func newServer(conf *core.Config, shutdown chan os.Signal, p ServerParams) *echoapi.Server {
	return echoapi.NewServer(conf, shutdown, &echoapi.Deps{
		Logger:     p.Logger,
		Marksheets: p.Marksheets,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newTemplates))
	must(c.Provide(newEmailService))
	must(c.Provide(newSMSService))
	must(c.Provide(newSubmissionLog))
	must(c.Provide(pdfsvc.NewRenderer, dig.As(new(marksheet.Renderer))))
	must(c.Provide(newAssembler))
	must(c.Provide(marksheet.NewService))
	must(c.Provide(newShutdownChannel))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

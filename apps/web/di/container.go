package di

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/trezcool/bbbviewer/apps/web/echo"
	"github.com/trezcool/bbbviewer/core"
	"github.com/trezcool/bbbviewer/core/bbb"
	logsvc "github.com/trezcool/bbbviewer/services/logger"
	moodlesvc "github.com/trezcool/bbbviewer/services/moodle"
)

type MoodleLoggerParam struct {
	dig.In
	Logger core.Logger `name:"moodleLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "WEB : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newMoodleLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "MOODLE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newMoodleAPI(conf *core.Config, loggerParam MoodleLoggerParam) bbb.MoodleAPI {
	return moodlesvc.NewClient(conf, loggerParam.Logger)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	api bbb.MoodleAPI,
	validate *validator.Validate,
	translator ut.Translator,
) (*echoweb.Server, error) {
	if err := conf.Validate(validate); err != nil {
		return nil, err
	}
	return echoweb.NewServer(echoweb.Deps{
		Conf:       conf,
		Logger:     logger,
		MoodleAPI:  api,
		Validate:   validate,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newMoodleLogger, dig.Name("moodleLogger")))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newMoodleAPI))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

package dig_container

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/eduenglish/backend/apps/api/echo"
	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/grammar"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/seed"
	"github.com/eduenglish/backend/core/stats"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
	cachesvc "github.com/eduenglish/backend/services/cache"
	emailsvc "github.com/eduenglish/backend/services/email"
	"github.com/eduenglish/backend/services/gemini"
	logsvc "github.com/eduenglish/backend/services/logger"
	"github.com/eduenglish/backend/storage/database/mongodb"
)

const setupTimeout = 30 * time.Second

// App holds what the API process needs at runtime.
type App struct {
	dig.In

	Conf     *core.Config
	Logger   core.Logger
	DB       *mongodb.DB
	Cache    user.Cache
	AI       grammar.Checker
	Seeder   *seed.Seeder
	Server   echoapi.Server
	Shutdown chan os.Signal
}

// Close releases the connections opened by the container.
func (app App) Close(ctx context.Context) {
	for name, res := range map[string]interface{}{"cache": app.Cache, "grammar checker": app.AI} {
		if c, ok := res.(io.Closer); ok {
			if err := c.Close(); err != nil {
				app.Logger.Error("closing "+name, err)
			}
		}
	}
	if err := app.DB.Close(ctx); err != nil {
		app.Logger.Error("closing database", err)
	}
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *mongodb.DB
	Shutdown   chan os.Signal

	UserSvc       user.Service
	VocabularySvc vocabulary.Service
	CourseSvc     course.Service
	ResultSvc     result.Service
	StatsSvc      stats.Service
	GrammarSvc    grammar.Service
}

func newLogger(conf *core.Config) (core.Logger, error) {
	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger, nil
}

func newDB(conf *core.Config, logger core.Logger) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	db, err := mongodb.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = db.EnsureIndexes(ctx); err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}
	logger.Info("database connected: " + conf.Database.Name)
	return db, nil
}

// newCache returns nil when Redis is not configured or unreachable; users are then read from the database.
func newCache(conf *core.Config, logger core.Logger) user.Cache {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	c, err := cachesvc.NewRedisCache(ctx, conf, logger)
	if err != nil {
		logger.Warn("redis cache disabled", err)
		return nil
	}
	if c == nil {
		return nil
	}
	return c
}

// newChecker returns nil when the AI checker is not configured; grammar checks then use the rules.
func newChecker(conf *core.Config, logger core.Logger) grammar.Checker {
	chk, err := gemini.NewChecker(context.Background(), conf, logger)
	if err != nil {
		logger.Warn("AI grammar checker disabled", err)
		return nil
	}
	if chk == nil {
		return nil
	}
	return chk
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
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
	user.InitValidators(validate, translator)
	vocabulary.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate
}

func newShutdownChannel() chan os.Signal {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	return shutdown
}

func newServer(p serverParams) echoapi.Server {
	return echoapi.NewServer(
		p.Shutdown,
		&echoapi.Deps{
			Conf:          p.Conf,
			Logger:        p.Logger,
			Validate:      p.Validate,
			Translator:    p.Translator,
			DB:            p.DB,
			Metrics:       prometheus.DefaultRegisterer,
			UserSvc:       p.UserSvc,
			VocabularySvc: p.VocabularySvc,
			CourseSvc:     p.CourseSvc,
			ResultSvc:     p.ResultSvc,
			StatsSvc:      p.StatsSvc,
			GrammarSvc:    p.GrammarSvc,
		},
		echoapi.Options{},
	)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDB))
	must(c.Provide(newCache))
	must(c.Provide(newChecker))
	must(c.Provide(newEmailService))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newShutdownChannel))

	// repositories
	must(c.Provide(mongodb.NewUserRepository))
	must(c.Provide(mongodb.NewVocabularyRepository))
	must(c.Provide(mongodb.NewCourseRepository))
	must(c.Provide(mongodb.NewContentRepository))
	must(c.Provide(mongodb.NewResultRepository))
	must(c.Provide(mongodb.NewGrammarCheckRepository))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(vocabulary.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(result.NewService))
	must(c.Provide(stats.NewService))
	must(c.Provide(grammar.NewService))
	must(c.Provide(seed.New))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

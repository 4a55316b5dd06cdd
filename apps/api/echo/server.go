package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/grammar"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/stats"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

type (
	// Pinger reports whether the database is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		DB         Pinger
		// Metrics registers the HTTP metrics; a private registry is used when nil.
		Metrics prometheus.Registerer

		UserSvc       user.Service
		VocabularySvc vocabulary.Service
		CourseSvc     course.Service
		ResultSvc     result.Service
		StatsSvc      stats.Service
		GrammarSvc    grammar.Service
	}

	Options struct {
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		deps     *Deps
		opts     Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(shutdown chan os.Signal, deps *Deps, opts Options) Server {
	s := &server{
		deps:     deps,
		opts:     opts,
		app:      echo.New(),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Pre(corsMiddleware(conf.Server.AllowedOrigins))
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}
	reg := s.deps.Metrics
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s.app.Use(newMetrics(reg).middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	api := s.app.Group("/api")
	protect := protectMiddleware(conf, s.deps.UserSvc)
	optional := optionalAuthMiddleware(conf, s.deps.UserSvc)

	registerUserAPI(api, protect, s.deps)
	registerCourseAPI(api, protect, s.deps)
	registerVocabularyAPI(api, protect, optional, s.deps)
	registerResultAPI(api, protect, s.deps)
	registerStatsAPI(api, protect, s.deps)
	registerGrammarAPI(api, protect, s.deps)
}

func (s *server) Start() error {
	return s.app.Start(s.deps.Conf.Server.Host)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Welcome to " + s.deps.Conf.AppName + " API",
		"version": s.deps.Conf.Build,
		"endpoints": []string{
			"/api/auth", "/api/courses", "/api/results", "/api/users",
			"/api/vocabularies", "/api/stats", "/api/grammar",
		},
	})
}

func (s *server) health(ctx echo.Context) error {
	status := http.StatusOK
	db := "connected"
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx.Request().Context()); err != nil {
			s.deps.Logger.Warn("health check: database ping failed", err)
			status = http.StatusServiceUnavailable
			db = "disconnected"
		}
	}
	return ctx.JSON(status, echo.Map{
		"success":  status == http.StatusOK,
		"status":   http.StatusText(status),
		"database": db,
		"time":     core.Now(),
	})
}

package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/bbbviewer/core"
	"github.com/trezcool/bbbviewer/core/bbb"
)

type (
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		MoodleAPI  bbb.MoodleAPI
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     Deps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps Deps) (*Server, error) {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	conf := s.deps.Conf

	rdr, err := newRenderer()
	if err != nil {
		return errors.Wrap(err, "parsing templates")
	}

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.Renderer = rdr
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(conf, s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.Logger.SetLevel(log.INFO)

	s.app.GET("/health", s.health)
	registerBBBPages(s.app, s.deps)
	return nil
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports errors preventing the server from listening.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal is notified on SIGINT, SIGTERM and shutdown errors raised by handlers.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Build   string `json:"build"`
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.deps.Conf.AppVersion,
		Build:   s.deps.Conf.Build,
	})
}

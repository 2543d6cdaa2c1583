package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/admin"
	"github.com/trezcool/rors/core/assessment"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        user.Service
		SchoolSvc      school.Service
		AssessmentSvc  assessment.Service
		AdminSite      *admin.Site
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		// Errors receives the error that stopped the server.
		Errors() <-chan error
		// ShutdownSignal receives the OS signals & the shutdown requests of the handlers.
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)
	s.app.Debug = s.Conf.Debug

	s.app.GET("/", s.home)

	jwt := middleware.JWTWithConfig(jwtConfig(s.Conf))
	auth := authenticator{conf: s.Conf, users: s.UserSvc}
	authed := []echo.MiddlewareFunc{jwt, auth.activeUserMiddleware}

	registerUserAPI(s.app.Group("/users"), jwt, auth, s.UserSvc, s.Validate)
	registerClassAPI(s.app.Group("/classes", authed...), s.SchoolSvc)
	registerStudentAPI(s.app.Group("/students", authed...), s.SchoolSvc)
	registerAssessmentAPI(s.app.Group("/tests", authed...), auth, s.AssessmentSvc)
	if s.AdminSite != nil {
		registerAdminAPI(s.app.Group("/admin", append(authed, adminMiddleware)...), auth, s.AdminSite, s.Logger)
	}
}

func (s *server) Start() {
	s.Logger.Info("API listening on " + s.Conf.Server.Address())
	if err := s.app.Start(s.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.Conf.AppName+" API!")
}

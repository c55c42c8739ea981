package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
)

type (
	// Options is the set of dependencies needed to construct a Server.
	Options struct {
		Addr          string
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		UserSvc       user.Service
		StudentSvc    student.Service
		AttendanceSvc attendance.Service
		AnalyticsSvc  analytics.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts  Options
		app   *echo.Echo
		errCh chan error
		sigCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts Options) Server {
	s := &server{
		opts:  opts,
		app:   echo.New(),
		errCh: make(chan error, 1),
		sigCh: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Debug = s.opts.Conf.Debug
	s.app.HideBanner = true
	s.app.HTTPErrorHandler = appHTTPErrorHandler(s.opts.Logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if s.opts.Conf.Debug && !s.opts.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	if !s.opts.Conf.Debug {
		s.app.Use(middleware.Recover())
	}

	jwt := ConfigureAuth(s.opts.Conf.AppName, s.opts.Conf.SecretKey, s.opts.Conf.Server.JWTExpirationDelta)

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	registerUserAPI(v1, jwt, s.opts.UserSvc, s.opts.Validate)
	registerStudentAPI(v1, jwt, s.opts.StudentSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.AnalyticsSvc)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"service": s.opts.Conf.AppName, "status": "ok"})
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.app.ServeHTTP(w, r) }

func (s *server) Start() {
	signal.Notify(s.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		if err := s.app.Start(s.opts.Addr); err != nil && err != http.ErrServerClosed {
			s.errCh <- err
		}
	}()
}

func (s *server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *server) Close() error { return s.app.Close() }

func (s *server) Errors() <-chan error { return s.errCh }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.sigCh }

// signalShutdown sends an application shutdown signal; used when an
// unrecoverable error bubbles up through the error handler.
func (s *server) signalShutdown() {
	s.sigCh <- syscall.SIGTERM
}

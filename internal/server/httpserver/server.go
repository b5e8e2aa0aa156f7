// Package httpserver exposes the staffdesk services over HTTP/JSON with echo.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout = 10 * time.Second
	authBurst       = 5
	limiterExpiry   = 3 * time.Minute
)

// Limits bounds what a single client can send. Zero values disable a limit.
type Limits struct {
	MaxUploadSize int64
	// AuthRate is the sustained rate of /auth requests per client IP.
	AuthRate rate.Limit
}

// UserService is the part of services.UserService used by the handlers.
type UserService interface {
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (models.Principal, error)
	IsAdmin(p models.Principal) bool
	Me(ctx context.Context, p models.Principal) (*services.UserDetails, error)
	Get(ctx context.Context, p models.Principal, id int64) (*services.UserDetails, error)
	Update(ctx context.Context, p models.Principal, id int64, in services.UserUpdate) (*services.UserDetails, error)
	Delete(ctx context.Context, p models.Principal, id int64) (*models.User, error)
}

// EmployeeService is the part of services.EmployeeService used by the handlers.
type EmployeeService interface {
	List(ctx context.Context, p models.Principal) ([]*services.EmployeeView, error)
	Create(ctx context.Context, p models.Principal, in services.NewEmployee) (*services.EmployeeView, error)
	Update(ctx context.Context, p models.Principal, in services.EmployeeUpdate) (*services.EmployeeView, error)
	Delete(ctx context.Context, p models.Principal, employeeID int64) (*models.User, error)
}

// TaskService is the part of services.TaskService used by the handlers.
type TaskService interface {
	List(ctx context.Context, p models.Principal) ([]*models.Task, error)
	ListMine(ctx context.Context, p models.Principal) ([]*models.Task, error)
	Create(ctx context.Context, p models.Principal, in services.NewTask) (*models.Task, error)
	Update(ctx context.Context, p models.Principal, in services.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, p models.Principal, taskID int64) (*models.Task, error)
}

// Server is the HTTP front of the staffdesk services.
type Server struct {
	address   string
	echo      *echo.Echo
	users     UserService
	employees EmployeeService
	tasks     TaskService
	logger    logging.Logger
	limits    Limits
}

// NewServer builds the echo router with its middleware and routes. Call Run
// to start serving.
func NewServer(address string, l logging.Logger, us UserService, es EmployeeService, ts TaskService, limits Limits) *Server {
	s := &Server{
		address:   address,
		users:     us,
		employees: es,
		tasks:     ts,
		logger:    l.With("module", "http_server"),
		limits:    limits,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(s.requestLogger)
	e.Use(middleware.Recover())
	if limits.MaxUploadSize > 0 {
		e.Use(middleware.BodyLimit(strconv.FormatInt(limits.MaxUploadSize, 10)))
	}

	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo

	e.GET("/healthz", s.healthz)

	var public []echo.MiddlewareFunc
	if s.limits.AuthRate > 0 {
		store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      s.limits.AuthRate,
			Burst:     authBurst,
			ExpiresIn: limiterExpiry,
		})
		public = append(public, middleware.RateLimiter(store))
	}
	e.POST("/auth/login", s.login, public...)
	e.POST("/auth/refresh", s.refresh, public...)

	authed := []echo.MiddlewareFunc{s.authenticate}
	e.GET("/employee/tasks", s.listMyTasks, authed...)
	e.GET("/is-admin/", s.isAdmin, authed...)
	e.GET("/user/", s.me, authed...)
	e.GET("/profil/:id", s.getUser, authed...)
	e.PUT("/profil/:id", s.updateUser, authed...)
	e.DELETE("/profil/:id", s.deleteUser, authed...)

	admin := []echo.MiddlewareFunc{s.authenticate, s.requireAdmin}
	e.GET("/employees", s.listEmployees, admin...)
	e.POST("/employees/add", s.createEmployee, admin...)
	e.PUT("/employees/update", s.updateEmployee, admin...)
	e.DELETE("/employees/delete", s.deleteEmployee, admin...)
	e.GET("/tasks", s.listTasks, admin...)
	e.POST("/tasks/add", s.createTask, admin...)
	e.PUT("/tasks/update", s.updateTask, admin...)
	e.DELETE("/tasks/delete", s.deleteTask, admin...)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
}

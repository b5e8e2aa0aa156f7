package httpserver

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		s.logger.Info(req.Context(), "request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", c.Response().Status,
			"latency", time.Since(start).String(),
		)
		return nil
	}
}

// authenticate resolves the bearer token to a Principal and stores it in the
// echo context.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, common.AuthorizationScheme) || strings.TrimSpace(token) == "" {
			return common.Fail(common.KindUnauthenticated, "Authentication credentials were not provided.")
		}

		p, err := s.users.Authenticate(c.Request().Context(), strings.TrimSpace(token))
		if err != nil {
			return err
		}

		c.Set(principalKey, p)
		return next(c)
	}
}

// requireAdmin must run after authenticate.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !principal(c).IsStaff {
			return common.Fail(common.KindPermissionDenied, services.MsgPermissionDenied)
		}
		return next(c)
	}
}

func principal(c echo.Context) models.Principal {
	p, _ := c.Get(principalKey).(models.Principal)
	return p
}

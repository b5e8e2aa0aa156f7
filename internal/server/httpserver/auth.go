package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/staffdesk/internal/server/validation"
	"github.com/labstack/echo/v4"
)

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	userName := v.Required("username", req.UserName.String())
	v.Required("password", req.Password.String())
	if err := v.Err(); err != nil {
		return err
	}

	pair, err := s.users.Login(c.Request().Context(), userName, req.Password.String())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Access: pair.AccessToken, Refresh: pair.RefreshToken})
}

func (s *Server) refresh(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	token := v.Required("refresh_token", req.RefreshToken.String())
	if err := v.Err(); err != nil {
		return err
	}

	pair, err := s.users.RefreshToken(c.Request().Context(), token)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Access: pair.AccessToken, Refresh: pair.RefreshToken})
}

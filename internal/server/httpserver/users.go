package httpserver

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/dmitrijs2005/staffdesk/internal/server/validation"
	"github.com/labstack/echo/v4"
)

func (s *Server) isAdmin(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"is_admin": s.users.IsAdmin(principal(c))})
}

func (s *Server) me(c echo.Context) error {
	d, err := s.users.Me(c.Request().Context(), principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(d))
}

// The /profil/:id handlers let any authenticated caller read, edit and delete
// any user.

func (s *Server) getUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	d, err := s.users.Get(c.Request().Context(), principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(d))
}

func (s *Server) updateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req userRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	userName := v.Required("username", req.UserName.String())
	v.MaxLen("username", userName, maxUserNameLength)
	v.MaxLen("email", req.Email.String(), 254)
	if err := v.Err(); err != nil {
		return err
	}

	d, err := s.users.Update(c.Request().Context(), principal(c), id, services.UserUpdate{
		UserName: userName,
		Email:    req.Email.String(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(d))
}

func (s *Server) deleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := s.users.Delete(c.Request().Context(), principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, textResponse{Text: fmt.Sprintf("user(%s) deleted successfully", user.UserName)})
}

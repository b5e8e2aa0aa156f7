package httpserver

import (
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/dmitrijs2005/staffdesk/internal/server/validation"
	"github.com/labstack/echo/v4"
)

const maxUserNameLength = 150

func (s *Server) listEmployees(c echo.Context) error {
	employees, err := s.employees.List(c.Request().Context(), principal(c))
	if err != nil {
		return err
	}

	out := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, newEmployeeResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

// employeePicture validates the picture upload. A missing picture is recorded
// as a field error.
func employeePicture(c echo.Context, v *validation.Validator) (*services.Picture, io.Closer, error) {
	fh, err := picturePart(c)
	if err != nil {
		return nil, nil, err
	}
	if fh == nil {
		v.Check(false, common.PictureFormField, validation.MsgNoFile)
		return nil, io.NopCloser(nil), nil
	}
	return openPicture(v, fh)
}

func (s *Server) createEmployee(c echo.Context) error {
	var req employeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	userName := v.Required("username", req.UserName.String())
	v.MaxLen("username", userName, maxUserNameLength)
	v.Required("password", req.Password.String())
	salary := v.Int("salary", req.Salary.String())

	pic, closer, err := employeePicture(c, v)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := v.Err(); err != nil {
		return err
	}

	out, err := s.employees.Create(c.Request().Context(), principal(c), services.NewEmployee{
		UserName: userName,
		Password: req.Password.String(),
		Salary:   salary,
		Picture:  pic,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newEmployeeResponse(out))
}

func (s *Server) updateEmployee(c echo.Context) error {
	var req employeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	id := v.ID("employee_id", req.EmployeeID.String())
	userName := v.Required("username", req.UserName.String())
	v.MaxLen("username", userName, maxUserNameLength)
	salary := v.Int("salary", req.Salary.String())

	pic, closer, err := employeePicture(c, v)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := v.Err(); err != nil {
		return err
	}

	out, err := s.employees.Update(c.Request().Context(), principal(c), services.EmployeeUpdate{
		EmployeeID: id,
		UserName:   userName,
		Salary:     salary,
		Picture:    pic,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newEmployeeResponse(out))
}

func (s *Server) deleteEmployee(c echo.Context) error {
	var req employeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	id := v.ID("employee_id", req.EmployeeID.String())
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.employees.Delete(c.Request().Context(), principal(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, textResponse{Text: fmt.Sprintf("employee(%s) deleted successfully", user.UserName)})
}

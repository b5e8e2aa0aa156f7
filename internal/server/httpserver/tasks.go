package httpserver

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/dmitrijs2005/staffdesk/internal/server/validation"
	"github.com/labstack/echo/v4"
)

func (s *Server) listTasks(c echo.Context) error {
	tasks, err := s.tasks.List(c.Request().Context(), principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTaskResponses(tasks))
}

func (s *Server) listMyTasks(c echo.Context) error {
	tasks, err := s.tasks.ListMine(c.Request().Context(), principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTaskResponses(tasks))
}

func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	employeeID := v.ID("employee_id", req.EmployeeID.String())
	title := v.Required("title", req.Title.String())
	v.MaxLen("title", title, maxTitleLength)
	description := v.Required("description", req.Description.String())
	deadline := v.DateTime("deadline", req.Deadline.String())
	if err := v.Err(); err != nil {
		return err
	}

	task, err := s.tasks.Create(c.Request().Context(), principal(c), services.NewTask{
		EmployeeID:  employeeID,
		Title:       title,
		Description: description,
		Deadline:    deadline,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newTaskResponse(task))
}

func (s *Server) updateTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	taskID := v.ID("task_id", req.TaskID.String())
	title := v.Required("title", req.Title.String())
	v.MaxLen("title", title, maxTitleLength)
	description := v.Required("description", req.Description.String())
	deadline := v.DateTime("deadline", req.Deadline.String())
	if err := v.Err(); err != nil {
		return err
	}

	task, err := s.tasks.Update(c.Request().Context(), principal(c), services.TaskUpdate{
		TaskID:      taskID,
		Title:       title,
		Description: description,
		Deadline:    deadline,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newTaskResponse(task))
}

func (s *Server) deleteTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := validation.New()
	taskID := v.ID("task_id", req.TaskID.String())
	if err := v.Err(); err != nil {
		return err
	}

	task, err := s.tasks.Delete(c.Request().Context(), principal(c), taskID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, textResponse{Text: fmt.Sprintf("task(%s) deleted successfully", task.Title)})
}

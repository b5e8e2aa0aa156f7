package httpserver

import (
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
)

type textResponse struct {
	Text string `json:"text"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type employeeResponse struct {
	ID       int64  `json:"id"`
	UserName string `json:"username"`
	Salary   int64  `json:"salary"`
	Picture  string `json:"picture"`
}

func newEmployeeResponse(e *services.EmployeeView) employeeResponse {
	return employeeResponse{
		ID:       e.User.ID,
		UserName: e.User.UserName,
		Salary:   e.Profile.Salary,
		Picture:  e.PictureURL,
	}
}

type taskResponse struct {
	ID          int64     `json:"id"`
	Employee    int64     `json:"employee"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
}

func newTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Employee:    t.EmployeeID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline.UTC(),
	}
}

func newTaskResponses(tasks []*models.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}

type profileResponse struct {
	Salary  int64  `json:"salary"`
	Picture string `json:"picture"`
}

type userResponse struct {
	ID         int64            `json:"id"`
	UserName   string           `json:"username"`
	Email      string           `json:"email"`
	IsStaff    bool             `json:"is_staff"`
	Profile    *profileResponse `json:"profile"`
	DateJoined time.Time        `json:"date_joined"`
	LastLogin  *time.Time       `json:"last_login"`
}

func newUserResponse(d *services.UserDetails) userResponse {
	r := userResponse{
		ID:         d.User.ID,
		UserName:   d.User.UserName,
		Email:      d.User.Email,
		IsStaff:    d.User.IsStaff,
		DateJoined: d.User.DateJoined,
		LastLogin:  d.User.LastLogin,
	}
	if d.Profile != nil {
		r.Profile = &profileResponse{Salary: d.Profile.Salary, Picture: d.PictureURL}
	}
	return r
}

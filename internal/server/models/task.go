package models

import "time"

// Task is a unit of work assigned to exactly one employee.
type Task struct {
	ID          int64
	EmployeeID  int64
	Title       string
	Description string
	Deadline    time.Time
}

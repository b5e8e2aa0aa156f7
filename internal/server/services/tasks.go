package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/repomanager"
)

// NewTask is the input of TaskService.Create.
type NewTask struct {
	EmployeeID  int64
	Title       string
	Description string
	Deadline    time.Time
}

// TaskUpdate replaces every mutable field of a task.
type TaskUpdate struct {
	TaskID      int64
	Title       string
	Description string
	Deadline    time.Time
}

// TaskService manages tasks. Only listing your own tasks is open to
// non-staff callers.
type TaskService struct {
	db          DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(db DB, m repomanager.RepositoryManager, log logging.Logger) *TaskService {
	return &TaskService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "tasks"),
	}
}

// List returns all tasks. Staff only.
func (s *TaskService) List(ctx context.Context, p models.Principal) ([]*models.Task, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	tasks, err := s.repomanager.Tasks(s.db).List(ctx)
	if err != nil {
		return nil, common.Internal(err)
	}
	return tasks, nil
}

// ListMine returns the tasks assigned to the caller.
func (s *TaskService) ListMine(ctx context.Context, p models.Principal) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks(s.db).ListByEmployee(ctx, p.UserID)
	if err != nil {
		return nil, common.Internal(err)
	}
	return tasks, nil
}

// Create assigns a new task to a non-staff user.
func (s *TaskService) Create(ctx context.Context, p models.Principal, in NewTask) (*models.Task, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	employee, err := s.repomanager.Users(s.db).GetNonStaffByID(ctx, in.EmployeeID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if employee == nil {
		return nil, common.Fail(common.KindNotFound, MsgEmployeeNotFound)
	}

	task, err := s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		EmployeeID:  employee.ID,
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
	})
	if err != nil {
		return nil, common.Internal(err)
	}

	s.log.Info(ctx, "task created", "task_id", task.ID, "employee_id", task.EmployeeID)
	return task, nil
}

func (s *TaskService) get(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repomanager.Tasks(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, common.Internal(err)
	}
	if task == nil {
		return nil, common.Fail(common.KindNotFound, MsgTaskNotFound)
	}
	return task, nil
}

// Update overwrites title, description and deadline. The assignee is kept.
func (s *TaskService) Update(ctx context.Context, p models.Principal, in TaskUpdate) (*models.Task, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	task, err := s.get(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}

	task.Title = in.Title
	task.Description = in.Description
	task.Deadline = in.Deadline

	if err := s.repomanager.Tasks(s.db).Update(ctx, task); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Fail(common.KindNotFound, MsgTaskNotFound)
		}
		return nil, common.Internal(err)
	}

	s.log.Info(ctx, "task updated", "task_id", task.ID)
	return task, nil
}

// Delete removes a task and returns it.
func (s *TaskService) Delete(ctx context.Context, p models.Principal, taskID int64) (*models.Task, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	task, err := s.get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Tasks(s.db).Delete(ctx, task.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Fail(common.KindNotFound, MsgTaskNotFound)
		}
		return nil, common.Internal(err)
	}

	s.log.Info(ctx, "task deleted", "task_id", task.ID)
	return task, nil
}

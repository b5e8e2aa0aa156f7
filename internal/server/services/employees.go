package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/dbx"
	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/auth"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/staffdesk/internal/server/storage"
	"github.com/dmitrijs2005/staffdesk/internal/server/validation"
)

// EmployeeView is an employee with a temporary link to its picture.
type EmployeeView struct {
	models.Employee
	PictureURL string
}

// NewEmployee is the input of EmployeeService.Create. Picture is required.
type NewEmployee struct {
	UserName string
	Password string
	Salary   int64
	Picture  *Picture
}

// EmployeeUpdate replaces the username and salary of an employee. A nil
// Picture keeps the current one.
type EmployeeUpdate struct {
	EmployeeID int64
	UserName   string
	Salary     int64
	Picture    *Picture
}

// EmployeeService manages employees. All operations require a staff caller.
type EmployeeService struct {
	db          DB
	repomanager repomanager.RepositoryManager
	pictures    storage.PictureStore
	log         logging.Logger
}

// NewEmployeeService constructs an EmployeeService. pictures stores the
// employee pictures.
func NewEmployeeService(db DB, m repomanager.RepositoryManager, pictures storage.PictureStore, log logging.Logger) *EmployeeService {
	return &EmployeeService{
		db:          db,
		repomanager: m,
		pictures:    pictures,
		log:         log.With("module", "employees"),
	}
}

func (s *EmployeeService) view(ctx context.Context, e *models.Employee) *EmployeeView {
	return &EmployeeView{Employee: *e, PictureURL: pictureURL(ctx, s.pictures, s.log, e.Profile.PictureKey)}
}

// List returns every user that has a profile.
func (s *EmployeeService) List(ctx context.Context, p models.Principal) ([]*EmployeeView, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	employees, err := s.repomanager.Users(s.db).ListEmployees(ctx)
	if err != nil {
		return nil, common.Internal(err)
	}

	out := make([]*EmployeeView, 0, len(employees))
	for _, e := range employees {
		out = append(out, s.view(ctx, e))
	}
	return out, nil
}

// Create stores the picture, then the user and its profile in one
// transaction. The picture is removed again when the transaction fails.
func (s *EmployeeService) Create(ctx context.Context, p models.Principal, in NewEmployee) (*EmployeeView, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if in.Picture == nil {
		return nil, common.Invalid(map[string]string{common.PictureFormField: validation.MsgNoFile})
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, common.Internal(err)
	}

	key, err := uploadPicture(ctx, s.pictures, in.Picture)
	if err != nil {
		return nil, err
	}

	var employee models.Employee
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     in.UserName,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}

		profile := &models.Profile{UserID: user.ID, Salary: in.Salary, PictureKey: key}
		if err := s.repomanager.Profiles(tx).Create(ctx, profile); err != nil {
			return err
		}

		employee = models.Employee{User: *user, Profile: *profile}
		return nil
	})
	if err != nil {
		removePicture(ctx, s.pictures, s.log, key)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Fail(common.KindConflict, MsgUserNameTaken)
		}
		return nil, common.Internal(err)
	}

	s.log.Info(ctx, "employee created", "employee_id", employee.User.ID, "by", p.UserID)
	return s.view(ctx, &employee), nil
}

// lookup finds the user by id and requires it to have a profile.
func (s *EmployeeService) lookup(ctx context.Context, id int64) (*models.User, *models.Profile, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, common.Internal(err)
	}
	if user == nil {
		return nil, nil, common.Fail(common.KindNotFound, MsgEmployeeNotFound)
	}

	profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, id)
	if err != nil {
		return nil, nil, common.Internal(err)
	}
	if profile == nil {
		return nil, nil, common.Fail(common.KindNotFound, MsgNotAnEmployee)
	}

	return user, profile, nil
}

// Update changes the username, salary and optionally the picture of an
// employee. The replaced picture is removed after the change is committed.
func (s *EmployeeService) Update(ctx context.Context, p models.Principal, in EmployeeUpdate) (*EmployeeView, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	user, profile, err := s.lookup(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	oldKey := profile.PictureKey
	newKey := ""
	if in.Picture != nil {
		if newKey, err = uploadPicture(ctx, s.pictures, in.Picture); err != nil {
			return nil, err
		}
		profile.PictureKey = newKey
	}

	user.UserName = in.UserName
	profile.Salary = in.Salary

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Update(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Profiles(tx).Update(ctx, profile)
	})
	if err != nil {
		removePicture(ctx, s.pictures, s.log, newKey)
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.Fail(common.KindConflict, MsgUserNameTaken)
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.Fail(common.KindNotFound, MsgEmployeeNotFound)
		}
		return nil, common.Internal(err)
	}

	if newKey != "" && oldKey != newKey {
		removePicture(ctx, s.pictures, s.log, oldKey)
	}

	s.log.Info(ctx, "employee updated", "employee_id", user.ID, "by", p.UserID)
	return s.view(ctx, &models.Employee{User: *user, Profile: *profile}), nil
}

// Delete removes an employee with its profile and tasks. Users without a
// profile, admins included, are refused.
func (s *EmployeeService) Delete(ctx context.Context, p models.Principal, employeeID int64) (*models.User, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	user, profile, err := s.lookup(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Users(s.db).Delete(ctx, user.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Fail(common.KindNotFound, MsgEmployeeNotFound)
		}
		return nil, common.Internal(err)
	}

	removePicture(ctx, s.pictures, s.log, profile.PictureKey)
	s.log.Info(ctx, "employee deleted", "employee_id", user.ID, "by", p.UserID)
	return user, nil
}

// Package services implements the staffdesk operations on top of the
// repositories: authentication, employee management and task management.
// Every operation takes the calling models.Principal explicitly and reports
// failures as *common.Error values.
package services

import (
	"context"
	"database/sql"
	"io"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/storage"
)

const (
	MsgPermissionDenied = "You do not have permission to perform this action."
	MsgEmployeeNotFound = "employee not exists"
	MsgNotAnEmployee    = "this user it not an employee"
	MsgUserNameTaken    = "username already exists"
	MsgUserNotFound     = "user not exists"
	MsgTaskNotFound     = "task not exists"
	MsgBadCredentials   = "no active account found with the given credentials"
	MsgBadRefreshToken  = "token is invalid or expired"
)

// DB is what the services need from *sql.DB: plain queries plus transactions.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Picture is an uploaded picture file.
type Picture struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func requireStaff(p models.Principal) error {
	if !p.IsStaff {
		return common.Fail(common.KindPermissionDenied, MsgPermissionDenied)
	}
	return nil
}

func uploadPicture(ctx context.Context, store storage.PictureStore, pic *Picture) (string, error) {
	key, err := store.Put(ctx, pic.FileName, pic.ContentType, pic.Body, pic.Size)
	if err != nil {
		return "", common.Internal(err)
	}
	return key, nil
}

// removePicture deletes key. Failures are logged, not returned.
func removePicture(ctx context.Context, store storage.PictureStore, log logging.Logger, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		log.Warn(ctx, "picture cleanup failed", "key", key, "error", err)
	}
}

// pictureURL links to key, or returns "" and logs when presigning fails.
func pictureURL(ctx context.Context, store storage.PictureStore, log logging.Logger, key string) string {
	if key == "" {
		return ""
	}
	u, err := store.URL(ctx, key)
	if err != nil {
		log.Warn(ctx, "picture url failed", "key", key, "error", err)
		return ""
	}
	return u
}

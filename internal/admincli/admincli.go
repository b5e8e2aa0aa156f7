// Package admincli implements the bootstrap command that creates the first
// admin (staff) account.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/flagx"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
)

var (
	ErrBlankUserName    = errors.New("username cannot be blank")
	ErrBlankPassword    = errors.New("password cannot be blank")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

var adminFlags = []string{"-username", "--username", "-email", "--email"}

// Options are the values that may be given on the command line instead of
// being prompted for.
type Options struct {
	UserName string
	Email    string
}

// ParseFlags reads -username and -email, ignoring every other flag.
func ParseFlags(args []string) (Options, error) {
	var o Options

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.UserName, "username", "", "admin username")
	fs.StringVar(&o.Email, "email", "", "admin email")

	if err := fs.Parse(flagx.FilterArgs(args, adminFlags)); err != nil {
		return Options{}, err
	}
	return o, nil
}

// Creator creates staff users. services.UserService implements it.
type Creator interface {
	CreateAdmin(ctx context.Context, userName, email, password string) (*models.User, error)
}

// CreateSuperuser prompts for whatever opts leaves empty, asks for the
// password twice and creates the admin.
func CreateSuperuser(ctx context.Context, c Creator, opts Options, reader *bufio.Reader, w io.Writer) (*models.User, error) {
	var err error

	userName := opts.UserName
	if userName == "" {
		if userName, err = GetSimpleText(reader, "Username", w); err != nil {
			return nil, err
		}
	}
	if userName == "" {
		return nil, ErrBlankUserName
	}

	email := opts.Email
	if email == "" {
		if email, err = GetSimpleText(reader, "Email address", w); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	password, err := GetPassword("Password", w)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrBlankPassword
	}

	again, err := GetPassword("Password (again)", w)
	if err != nil {
		return nil, err
	}
	if again != password {
		return nil, ErrPasswordMismatch
	}

	user, err := c.CreateAdmin(ctx, userName, email, password)
	if err != nil {
		var cerr *common.Error
		if errors.As(err, &cerr) && cerr.Kind == common.KindConflict {
			return nil, fmt.Errorf("%s: %s", userName, cerr.Text)
		}
		return nil, err
	}

	fmt.Fprintln(w, "Superuser created successfully.")
	return user, nil
}

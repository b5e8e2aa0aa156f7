package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/dmitrijs2005/staffdesk/internal/server/validation"
	"github.com/labstack/echo/v4"
)

const maxTitleLength = 100

// field is a request value that may arrive as a JSON scalar, or as a form or
// query parameter. JSON objects and arrays are rejected.
type field string

func (f *field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		value := "object"
		if b[0] == '[' {
			value = "array"
		}
		return &json.UnmarshalTypeError{Value: value, Type: reflect.TypeOf(*f)}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = field(s)
	default:
		*f = field(b)
	}
	return nil
}

func (f field) String() string { return string(f) }

type loginRequest struct {
	UserName field `json:"username" form:"username"`
	Password field `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken field `json:"refresh_token" form:"refresh_token"`
}

type employeeRequest struct {
	EmployeeID field `json:"employee_id" form:"employee_id" query:"employee_id"`
	UserName   field `json:"username" form:"username"`
	Password   field `json:"password" form:"password"`
	Salary     field `json:"salary" form:"salary"`
}

type taskRequest struct {
	TaskID      field `json:"task_id" form:"task_id" query:"task_id"`
	EmployeeID  field `json:"employee_id" form:"employee_id"`
	Title       field `json:"title" form:"title"`
	Description field `json:"description" form:"description"`
	Deadline    field `json:"deadline" form:"deadline"`
}

type userRequest struct {
	UserName field `json:"username" form:"username"`
	Email    field `json:"email" form:"email"`
}

// bind decodes the request into dst. A value of the wrong JSON type becomes a
// field error; any other decoding failure is reported as a malformed body.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) && herr.Code != http.StatusBadRequest {
			return err
		}
		var terr *json.UnmarshalTypeError
		if errors.As(err, &terr) && terr.Field != "" {
			e := common.Invalid(map[string]string{terr.Field: validation.MsgString})
			e.Err = err
			return e
		}
		return &common.Error{Kind: common.KindValidation, Text: "malformed request body", Err: err}
	}
	return nil
}

// picturePart returns the uploaded picture, or nil when the request carries
// none.
func picturePart(c echo.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(common.PictureFormField)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, &common.Error{Kind: common.KindValidation, Text: "malformed request body", Err: err}
	}
}

// openPicture opens fh, sniffs the content type and validates it as an image.
// The returned closer must be called once the body has been consumed.
func openPicture(v *validation.Validator, fh *multipart.FileHeader) (*services.Picture, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, common.Internal(err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		_ = f.Close()
		return nil, nil, common.Internal(err)
	}

	ct := v.Image(common.PictureFormField, head[:n])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, nil, common.Internal(err)
	}

	return &services.Picture{FileName: fh.Filename, ContentType: ct, Size: fh.Size, Body: f}, f, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Fail(common.KindNotFound, services.MsgUserNotFound)
	}
	return id, nil
}

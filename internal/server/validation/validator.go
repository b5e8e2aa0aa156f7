// Package validation checks the shape of request fields: presence, integer
// and datetime syntax, length and image content. It knows nothing about the
// database.
package validation

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/common"
)

const (
	MsgRequired = "This field is required."
	MsgInteger  = "A valid integer is required."
	MsgString   = "Not a valid string."
	MsgDateTime = "Datetime has wrong format."
	MsgImage    = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgNoFile   = "No file was submitted."
)

// dateTimeLayouts are tried in order when parsing a deadline.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

var imageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
}

// Validator collects the first error message per field.
type Validator struct {
	errors map[string]string
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{errors: make(map[string]string)}
}

// Check records msg for key unless cond holds or key already failed.
func (v *Validator) Check(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *Validator) failed(key string) bool {
	_, ok := v.errors[key]
	return ok
}

// Required checks that value is not blank.
func (v *Validator) Required(key, value string) string {
	value = strings.TrimSpace(value)
	v.Check(value != "", key, MsgRequired)
	return value
}

// MaxLen checks the length of value in runes.
func (v *Validator) MaxLen(key, value string, n int) {
	v.Check(len([]rune(value)) <= n, key, "Ensure this field has no more than "+strconv.Itoa(n)+" characters.")
}

// Int parses a required integer field.
func (v *Validator) Int(key, value string) int64 {
	value = v.Required(key, value)
	if v.failed(key) {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	v.Check(err == nil, key, MsgInteger)
	return n
}

// ID parses a required positive integer id.
func (v *Validator) ID(key, value string) int64 {
	n := v.Int(key, value)
	if v.failed(key) {
		return 0
	}
	v.Check(n > 0, key, MsgInteger)
	return n
}

// DateTime parses a required datetime. Values without a zone are read as UTC.
func (v *Validator) DateTime(key, value string) time.Time {
	value = v.Required(key, value)
	if v.failed(key) {
		return time.Time{}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	v.Check(false, key, MsgDateTime)
	return time.Time{}
}

// Image checks that head, the first bytes of an uploaded file, look like a
// supported image. It returns the sniffed content type.
func (v *Validator) Image(key string, head []byte) string {
	if len(head) == 0 {
		v.Check(false, key, MsgNoFile)
		return ""
	}
	ct := http.DetectContentType(head)
	_, ok := imageTypes[ct]
	v.Check(ok, key, MsgImage)
	return ct
}

func (v *Validator) Valid() bool {
	return len(v.errors) == 0
}

// Err returns nil when valid, otherwise a validation *common.Error carrying
// the field messages.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	fields := make(map[string]string, len(v.errors))
	for k, msg := range v.errors {
		fields[k] = msg
	}
	return common.Invalid(fields)
}

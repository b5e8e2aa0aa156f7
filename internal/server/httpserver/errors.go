package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Text   string            `json:"text"`
	Errors map[string]string `json:"errors,omitempty"`
}

func statusOf(kind common.Kind) int {
	switch kind {
	case common.KindValidation, common.KindNotFound, common.KindConflict:
		return http.StatusBadRequest
	case common.KindPermissionDenied:
		return http.StatusForbidden
	case common.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// handleError is the echo HTTPErrorHandler. *common.Error values are mapped by
// kind, echo errors keep their status, anything else is a 500.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorResponse{Text: common.ErrorInternal.Error()}

	var cerr *common.Error
	var herr *echo.HTTPError
	switch {
	case errors.As(err, &cerr):
		status = statusOf(cerr.Kind)
		if cerr.Kind != common.KindInternal {
			body = errorResponse{Text: cerr.Text, Errors: cerr.Fields}
		}
	case errors.As(err, &herr):
		status = herr.Code
		body = errorResponse{Text: fmt.Sprint(herr.Message)}
		if herr.Internal != nil {
			err = herr.Internal
		}
	}

	req := c.Request()
	if status >= http.StatusInternalServerError {
		s.logger.Error(req.Context(), "request failed", "method", req.Method, "path", req.URL.Path, "error", err)
	}

	if req.Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Error(req.Context(), "writing error response", "error", err)
	}
}

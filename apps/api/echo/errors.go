package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

var (
	errMissingAPIKey = echo.NewHTTPError(http.StatusUnauthorized, "missing api key")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// sentinelCodes maps domain errors to their HTTP status.
var sentinelCodes = []struct {
	err  error
	code int
}{
	{student.ErrNotFound, http.StatusNotFound},
	{group.ErrNotFound, http.StatusNotFound},
	{task.ErrNotFound, http.StatusNotFound},
	{evaluation.ErrNotFound, http.StatusNotFound},
	{export.ErrUnknownKind, http.StatusNotFound},
	{backup.ErrNoBackups, http.StatusNotFound},
	{export.ErrBusy, http.StatusTooManyRequests},
	{backup.ErrInvalidDocument, http.StatusBadRequest},
	{backup.ErrStorageDisabled, http.StatusServiceUnavailable},
}

func sentinelCode(err error) (int, bool) {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			if vErr.Fields != nil {
				fldErrs := make(map[string]string, len(vErr.Fields))
				for _, fErr := range vErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = vErr.Error()
			}
			code = http.StatusBadRequest
		} else if c, ok := sentinelCode(err); ok {
			code = c
			message = err.Error()
		} else {
			switch origErr := errors.Cause(err).(type) {
			case *echo.HTTPError:
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, fe := range origErr {
					fldErrs[fe.Field()] = fe.Translate(core.Translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				if logger != nil {
					logger.Error(msg, errors.Wrap(err, msg), requestActor(ctx))
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

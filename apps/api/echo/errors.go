package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusUnauthorized, "account deactivated")
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errHTTPForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errServerError          = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
)

type errorResponse struct {
	Error interface{} `json:"error"`
}

type fieldErrorsResponse struct {
	Error  string           `json:"error"`
	Fields []core.FieldError `json:"fields,omitempty"`
}

// appHTTPErrorHandler translates errors into JSON responses, delegating
// validation errors to a 400 with per-field detail and logging everything
// else as a server fault.
func appHTTPErrorHandler(logger core.Logger, shutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var res error
		switch cause := errors.Cause(err).(type) {
		case *echo.HTTPError:
			res = respond(ctx, cause.Code, errorResponse{cause.Message})
		case validator.ValidationErrors:
			fields := make([]core.FieldError, 0, len(cause))
			for _, fe := range cause {
				fields = append(fields, core.FieldError{Field: fe.Field(), Error: fe.Translate(core.Translator)})
			}
			res = respond(ctx, http.StatusBadRequest, fieldErrorsResponse{"validation error", fields})
		case *core.ValidationError:
			res = respond(ctx, http.StatusBadRequest, fieldErrorsResponse{cause.Error(), cause.Fields})
		default:
			logger.Error("request failed", "method", ctx.Request().Method, "path", ctx.Path(), "err", err)
			res = respond(ctx, http.StatusInternalServerError, errorResponse{errServerError.Message})
		}
		if res != nil {
			logger.Error("sending error response", "err", res)
		}

		if core.IsShutdown(errors.Cause(err)) {
			shutdown()
		}
	}
}

func respond(ctx echo.Context, code int, body interface{}) error {
	if ctx.Request().Method == http.MethodHead {
		return ctx.NoContent(code)
	}
	return ctx.JSON(code, body)
}

func jwtErrorHandler(err error) error {
	if err == middleware.ErrJWTMissing {
		return errUnauthorized
	}
	return errAuthenticationFailed
}

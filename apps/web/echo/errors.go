package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bbbviewer/core"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "page not found")

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering our HTML error page.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(conf *core.Config, logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if origErr == echo.ErrNotFound {
				origErr = errHttpNotFound
			}
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
			logger.Error(message, errors.Wrap(err, message), requestInfo(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.Render(code, tmplError, pageView{
					AppName:    conf.AppName,
					AppVersion: conf.AppVersion,
					Code:       code,
					Message:    message,
				})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func requestInfo(ctx echo.Context) core.RequestInfo {
	return core.RequestInfo{
		ID:     ctx.Response().Header().Get(echo.HeaderXRequestID),
		Method: ctx.Request().Method,
		Path:   ctx.Request().URL.Path,
	}
}

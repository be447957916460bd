package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating-api/internal/utils"
)

// dbTimeout bounds every persistence call made on behalf of a request.
const dbTimeout = 5 * time.Second

// ErrorHandler is the central Echo error handler.  Client errors raised by
// Echo itself (404, 405, bad binds) keep their status and message.  Anything
// else is logged and answered with a generic 500 so storage details never
// reach the client.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := utils.MsgInternal
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
			code = he.Code
			msg = http.StatusText(code)
			if m, ok := he.Message.(string); ok && m != "" {
				msg = m
			}
		} else {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = utils.Fail(c, code, msg, nil)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

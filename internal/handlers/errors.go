package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anonto42/timeline-globe/backend/internal/apperrors"
	"github.com/labstack/echo/v4"
)

// ErrorHandler writes every error as {"error": message}. Internal causes are
// logged with the request id and never sent to the client.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		var (
			appErr  *apperrors.Error
			httpErr *echo.HTTPError
		)
		switch {
		case errors.As(err, &appErr):
			code = apperrors.HTTPStatus(appErr.Kind)
			message = appErr.Message
		case errors.As(err, &httpErr):
			code = httpErr.Code
			message = fmt.Sprint(httpErr.Message)
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", code,
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": message})
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

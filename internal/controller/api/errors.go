package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/audit"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalidRequest:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindSlotUnavailable, apperror.KindConflict, apperror.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(message string) error {
	return apperror.New(apperror.KindInvalidRequest, message)
}

// errorHandler отдаёт apperror как {"error", "kind"}. Ошибки echo
// (404 маршрута, 405, битый JSON) сохраняют свой статус.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := ErrorResponse{Error: "internal error", Kind: apperror.KindStorage.String()}

		var httpErr *echo.HTTPError
		switch {
		case apperror.KindOf(err) != apperror.KindUnknown:
			kind := apperror.KindOf(err)
			status = statusOf(kind)
			body = ErrorResponse{Error: apperror.MessageOf(err), Kind: kind.String()}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			body = ErrorResponse{Error: http.StatusText(status), Kind: apperror.KindInvalidRequest.String()}
			if status == http.StatusNotFound {
				body.Kind = apperror.KindNotFound.String()
			}
			if status >= http.StatusInternalServerError {
				body.Kind = apperror.KindStorage.String()
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("path", c.Path()),
				zap.String("trace_id", audit.TraceID(c.Request().Context())),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

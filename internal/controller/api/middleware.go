package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/audit"
)

const headerRequestID = "X-Request-ID"

// TraceID берёт trace id из X-Request-ID или генерирует новый и кладёт
// его в контекст запроса для логов и аудита
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(headerRequestID)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, traceID)

			req := c.Request()
			c.SetRequest(req.WithContext(audit.WithTraceID(req.Context(), traceID)))
			return next(c)
		}
	}
}

// Timeout ограничивает время обработки запроса через контекст
func Timeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if d <= 0 {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Recover превращает панику обработчика в 500
func Recover(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Handler panic",
						zap.String("path", c.Path()),
						zap.String("trace_id", audit.TraceID(c.Request().Context())),
						zap.Any("panic", r),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}()
			return next(c)
		}
	}
}

// RequestLogger пишет строку лога на каждый запрос
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("trace_id", audit.TraceID(req.Context())),
			}
			if c.Response().Status >= http.StatusInternalServerError {
				logger.Error("HTTP request", fields...)
			} else {
				logger.Info("HTTP request", fields...)
			}
			return nil
		}
	}
}

package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/observability"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// RegisterMiddlewares attaches the request logger, error envelope and request timeout.
// The logger sits outermost so it records the status the error middleware rendered.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

// RegisterFallback answers every unmatched route. Call it after all routes.
func RegisterFallback(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewDomainError(apperrors.CodeNotFound, "Endpoint not found", http.StatusNotFound, nil)
	})
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(utils.CopyString(c.Route().Path), utils.CopyString(c.Method()), domainErr.Code)

				response := fiber.Map{
					"success": false,
					"error":   domainErr.Message,
					"code":    domainErr.Code,
				}
				if len(domainErr.Details) > 0 && domainErr.HTTPStatus < http.StatusInternalServerError {
					response["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= http.StatusInternalServerError {
					logger.Error("request failed",
						zap.String("path", c.Path()),
						zap.Any("request_id", c.Locals("request_id")),
						zap.Error(domainErr))
				}
				err = c.Status(domainErr.HTTPStatus).JSON(response)
			}
		}()
		return c.Next()
	}
}

// toDomainError also maps errors raised by fiber itself, such as oversized bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch {
		case fiberErr.Code == http.StatusNotFound:
			return apperrors.NewDomainError(apperrors.CodeNotFound, "Endpoint not found", fiberErr.Code, nil)
		case fiberErr.Code < http.StatusInternalServerError:
			return apperrors.NewDomainError(apperrors.CodeValidation, fiberErr.Message, fiberErr.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}

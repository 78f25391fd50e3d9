package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/observability"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// Middleware rejects clients over the limit with 429. Keys combine the route
// and client IP so each protected endpoint has its own budget.
func Middleware(limiter Limiter, logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route := utils.CopyString(c.Route().Path)
		key := route + ":" + c.IP()

		allowed, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			// fail open
			logger.Error("rate limiter failed", zap.Error(err))
			return c.Next()
		}
		if !allowed {
			metrics.RecordRateLimited(route)
			return apperrors.NewRateLimited("Too many requests, please try again later")
		}
		return c.Next()
	}
}

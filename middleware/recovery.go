package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panic in a handler into a logged 500 with the
// usual error body.
func RecoveryMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("panic recovered",
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("request_id", RequestID(c)),
			)
			err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": "An internal server error occurred",
			})
		}()
		return c.Next()
	}
}

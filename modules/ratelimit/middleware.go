package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/example/todo-app/pkg/res"
	"github.com/gofiber/fiber/v2"
)

// Allower is the limiter used by Handler.
type Allower interface {
	Allow(ctx context.Context, key string) (Result, error)
	Limit() int
}

// Handler limits requests by client IP. Limiter errors let the request
// through with an X-RateLimit-Error header.
func Handler(l Allower) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return res.Error(c, fiber.StatusForbidden, "Forbidden", "Unable to determine client IP address")
		}

		result, err := l.Allow(c.UserContext(), ip)
		if err != nil {
			c.Set("X-RateLimit-Error", err.Error())
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Limit()))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return res.Error(c, fiber.StatusTooManyRequests, "Too many requests",
				fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter))
		}

		return c.Next()
	}
}

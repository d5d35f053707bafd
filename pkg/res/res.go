// Package res writes the JSON response envelope shared by every endpoint.
package res

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Count     *int      `json:"count,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OK writes a success envelope.
func OK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// OKMessage writes a success envelope with a human-readable message.
func OKMessage(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// List writes a success envelope with a count of the returned items.
func List(c *fiber.Ctx, data any, count int) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{
		Success:   true,
		Data:      data,
		Count:     &count,
		Timestamp: time.Now().UTC(),
	})
}

// Error writes a failure envelope.
func Error(c *fiber.Ctx, status int, errMsg, message string) error {
	return c.Status(status).JSON(Envelope{
		Success:   false,
		Error:     errMsg,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

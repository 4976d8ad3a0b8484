package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every error written by this package.
type ErrorResponse struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// JSONResponse sends a custom status code and body as a JSON response.
func JSONResponse(c *fiber.Ctx, status int, s any) error {
	return c.Status(status).JSON(s)
}

// WriteError writes a structured error response.
func WriteError(c *fiber.Ctx, status int, title, message string) error {
	return JSONResponse(c, status, ErrorResponse{
		Code:    strconv.Itoa(status),
		Title:   title,
		Message: message,
	})
}

// ServiceUnavailableError writes a 503 with a generic message.
func ServiceUnavailableError(c *fiber.Ctx, title string) error {
	return WriteError(c, fiber.StatusServiceUnavailable, title, "service unavailable")
}

package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the configured frontend origin ("*" for any).
func CORS(allowedOrigin string) fiber.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigin,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Admin-Key",
	})
}

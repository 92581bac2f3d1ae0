package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS allows the local dev servers and, when set, baseURL.
func CORS(baseURL string) fiber.Handler {
	origins := append([]string(nil), defaultOrigins...)
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		origins = append(origins, baseURL)
	}

	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Accept,Accept-Language,Authorization",
		AllowCredentials: true,
	})
}

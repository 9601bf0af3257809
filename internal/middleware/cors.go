package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/signverse/signverse-backend/internal/config"
)

// CORS allows credentialed requests from the web client origins. Fiber
// rejects a wildcard origin combined with credentials, so "*" is dropped.
func CORS(cfg *config.Config) fiber.Handler {
	origins := parseCSV(cfg.CORSOrigins)
	if cfg.ClientURL != "" && !contains(origins, cfg.ClientURL) {
		origins = append(origins, cfg.ClientURL)
	}
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o != "*" {
			allowed = append(allowed, strings.TrimRight(o, "/"))
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowed, ","),
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Admin-Token",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: true,
	})
}

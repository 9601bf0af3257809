package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/signverse/signverse-backend/internal/config"
	"github.com/signverse/signverse-backend/internal/handlers"
	"github.com/signverse/signverse-backend/internal/middleware"
	"github.com/signverse/signverse-backend/internal/repository"
	"github.com/signverse/signverse-backend/internal/session"
)

type Deps struct {
	Config    *config.Config
	Sessions  *session.Issuer
	Users     repository.Users
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Signs     *handlers.SignHandler
	Translate *handlers.TranslateHandler
	Admin     *handlers.AdminHandler
}

func Setup(app *fiber.App, d Deps) {
	cfg := d.Config
	protect := middleware.Authenticate(d.Sessions)

	api := app.Group("/api")

	// General API rate limit per IP
	if h := rateLimit(cfg.APIRateLimit); h != nil {
		api.Use(h)
	}

	api.Get("/health", d.Health.Check)

	// Auth: stricter per IP limit
	auth := api.Group("/auth")
	if h := rateLimit(cfg.AuthRateLimit); h != nil {
		auth.Use(h)
	}
	auth.Post("/register", d.Auth.Register)
	auth.Post("/login", d.Auth.Login)
	auth.Post("/logout", d.Auth.Logout)
	auth.Get("/verify-email/:token", d.Auth.VerifyEmail)
	auth.Post("/resend-verification", d.Auth.ResendVerification)

	// Protected auth routes - middleware on the route, not the group
	auth.Get("/me", protect, d.Auth.Me)
	auth.Put("/change-password", protect, d.Auth.ChangePassword)

	// Sign dictionary (public)
	signs := api.Group("/signs")
	signs.Get("/search", d.Signs.Search)
	signs.Get("/suggest", d.Signs.Suggest)
	signs.Get("/has", d.Signs.Has)
	signs.Post("/batch", d.Signs.Batch)
	signs.Get("/words", d.Signs.Words)
	signs.Get("/random", d.Signs.Random)
	signs.Get("/stats", d.Signs.Stats)

	// ML translation proxy (session required)
	api.Post("/translate", protect, d.Translate.Translate)
	api.Post("/translate/realtime", protect, d.Translate.Realtime)
	api.Get("/translate/model", protect, d.Translate.ModelInfo)

	// Admin maintenance
	admin := api.Group("/admin",
		middleware.AdminTokenOrSession(cfg, protect),
		middleware.AdminRequired(d.Users, cfg),
	)
	admin.Delete("/registrations/expired", d.Admin.PurgeExpiredRegistrations)
}

// rateLimit returns nil when max is not positive.
func rateLimit(max int) fiber.Handler {
	if max <= 0 {
		return nil
	}
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

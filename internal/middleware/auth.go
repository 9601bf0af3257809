package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/signverse/signverse-backend/internal/dto"
	"github.com/signverse/signverse-backend/internal/session"
)

const (
	msgNoToken     = "Not authorized, no token"
	msgTokenFailed = "Not authorized, token failed"
)

// Authenticate accepts the session token from the token cookie or an
// Authorization: Bearer header and stores the user id in session.UserIDKey.
func Authenticate(issuer *session.Issuer) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: issuer.Secret()},
		TokenLookup: "cookie:" + session.CookieName + ",header:Authorization",
		AuthScheme:  "Bearer",
		SuccessHandler: func(c *fiber.Ctx) error {
			id, err := subject(c, issuer)
			if err != nil {
				return unauthorized(c, msgTokenFailed)
			}
			c.Locals(session.UserIDKey, id)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return unauthorized(c, msgNoToken)
			}
			return unauthorized(c, msgTokenFailed)
		},
	})
}

// subject re-checks the token with the issuer's rules, which also require
// an exp claim.
func subject(c *fiber.Ctx, issuer *session.Issuer) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, errors.New("no token in context")
	}
	return issuer.Parse(token.Raw)
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Success: false, Message: msg,
	})
}

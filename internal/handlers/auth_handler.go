package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/signverse/signverse-backend/internal/dto"
	"github.com/signverse/signverse-backend/internal/services"
	"github.com/signverse/signverse-backend/internal/session"
)

type AuthHandler struct {
	registration *services.RegistrationService
	auth         *services.AuthService
	sessionTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(registration *services.RegistrationService, auth *services.AuthService, sessions *session.Issuer, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		registration: registration,
		auth:         auth,
		sessionTTL:   sessions.TTL(),
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.registration.Register(c.UserContext(), services.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflict):
			return fail(c, fiber.StatusBadRequest, "User already exists")
		case errors.Is(err, services.ErrEmailDeliveryFailed):
			return fail(c, fiber.StatusInternalServerError, "Failed to send verification email. Please try again later.")
		}
		return h.unexpected(c, "register", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{
		Success: true,
		Message: "Registration successful! Please check your email to verify your account.",
		Email:   res.Email,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.auth.Login(c.UserContext(), services.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		return h.unexpected(c, "login", err)
	}

	c.Cookie(session.Cookie(res.SessionToken, res.SessionExpires, h.sessionTTL, h.secureCookie))
	return c.JSON(dto.NewUserResponse(res.User))
}

// Logout clears the session cookie. It needs no valid session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(session.ExpiredCookie(h.secureCookie))
	return c.JSON(dto.MessageResponse{Success: true, Message: "Logged out successfully"})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	res, err := h.registration.VerifyEmail(c.UserContext(), c.Params("token"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrExpiredToken) {
			return fail(c, fiber.StatusBadRequest, "Invalid or expired verification token")
		}
		return h.unexpected(c, "verify_email", err)
	}

	c.Cookie(session.Cookie(res.SessionToken, res.SessionExpires, h.sessionTTL, h.secureCookie))
	return c.JSON(dto.VerifyEmailResponse{
		Success: true,
		Message: "Email verified successfully! You are now logged in.",
		User:    dto.NewUserResponse(res.User),
	})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req dto.ResendVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	err := h.registration.ResendVerification(c.UserContext(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflict):
			return fail(c, fiber.StatusBadRequest, "This email is already verified")
		case errors.Is(err, services.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "No pending registration found for this email")
		case errors.Is(err, services.ErrEmailDeliveryFailed):
			return fail(c, fiber.StatusInternalServerError, "Failed to resend verification email. Please try again later.")
		}
		return h.unexpected(c, "resend_verification", err)
	}

	return c.JSON(dto.MessageResponse{
		Success: true,
		Message: "Verification email has been resent. Please check your inbox.",
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Not authorized, no token")
	}

	user, err := h.auth.Me(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			return fail(c, fiber.StatusUnauthorized, "Not authorized, user not found")
		}
		return h.unexpected(c, "me", err)
	}

	return c.JSON(dto.NewUserResponse(user))
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Not authorized, no token")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	err = h.auth.ChangePassword(c.UserContext(), userID, services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return fail(c, fiber.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, services.ErrUnauthenticated):
			return fail(c, fiber.StatusUnauthorized, "Not authorized, user not found")
		}
		return h.unexpected(c, "change_password", err)
	}

	return c.JSON(dto.MessageResponse{Success: true, Message: "Password changed successfully"})
}

// unexpected maps validation errors to 400 and anything else to 500.
func (h *AuthHandler) unexpected(c *fiber.Ctx, action string, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false, Message: capitalize(verr.Message), Errors: verr.Fields,
		})
	}

	slog.Error("request failed",
		"action", action,
		"request_id", requestID(c),
		"error", err,
	)
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

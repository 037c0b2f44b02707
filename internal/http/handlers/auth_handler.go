package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentialsReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type sessionResp struct {
	User  *domain.User     `json:"user"`
	Token auth.AccessToken `json:"accessToken"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req credentialsReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		return badRequest(c, "email", "enter a valid email")
	}
	if !validate.Password(req.Password) {
		return badRequest(c, "password", "password must be 8-64 characters with upper, lower, digit and symbol")
	}
	first, ok := validate.Name(req.FirstName)
	if !ok {
		return badRequest(c, "firstName", "first name must be 1-40 characters")
	}
	last, _ := validate.Name(req.LastName)

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, tok, err := h.Auth.Signup(ctx, services.SignupInput{Email: email, Password: req.Password, FirstName: first, LastName: last})
	if err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			log.Security(c, "auth.signup.duplicate", nil)
		}
		return writeError(c, "auth.signup", err)
	}
	c.Locals(log.LocalUserID, u.ID)
	log.Audit(c, "auth.signup", map[string]any{"user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(sessionResp{User: u, Token: tok})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	email, ok := validate.Email(req.Email)
	if !ok || req.Password == "" {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return fail(c, fiber.StatusUnauthorized, "unauthenticated", domain.ErrBadCredentials.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, tok, err := h.Auth.Login(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrBadCredentials) {
			log.Security(c, "auth.login.fail", map[string]any{"email": email})
		}
		return writeError(c, "auth.login", err)
	}
	c.Locals(log.LocalUserID, u.ID)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(sessionResp{User: u, Token: tok})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, _ := identity(c)
	return c.JSON(id)
}

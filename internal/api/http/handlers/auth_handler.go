package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-sla-service/internal/api/dto"
	"github.com/spec-kit/case-sla-service/internal/service"
	apperrors "github.com/spec-kit/case-sla-service/pkg/util"
)

// AuthHandler manages staff authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	account, token, expiresAt, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		AccountID:   account.ID,
		Name:        account.Name,
		Role:        string(account.Role),
	}})
}

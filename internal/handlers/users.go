package handlers

import (
	"github.com/assetshare/backend/internal/middleware"
	"github.com/assetshare/backend/internal/services"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UsersHandler struct {
	Auth *services.AuthService
}

func NewUsersHandler(auth *services.AuthService) *UsersHandler {
	return &UsersHandler{Auth: auth}
}

type authResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	SharingCode string    `json:"sharingCode"`
	Token       string    `json:"token"`
}

type profileResponse struct {
	ID                     uuid.UUID `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	SharingCode            string    `json:"sharingCode"`
	HasPaidForLargeUploads bool      `json:"hasPaidForLargeUploads"`
}

func newAuthResponse(res *services.AuthResult) authResponse {
	return authResponse{
		ID:          res.User.ID,
		Name:        res.User.Name,
		Email:       res.User.Email,
		SharingCode: res.User.SharingCode,
		Token:       res.Token,
	}
}

func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := h.Auth.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, "user_register_failed", err)
	}
	return utils.Success(c, fiber.StatusCreated, newAuthResponse(res))
}

func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := h.Auth.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, "user_login_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, newAuthResponse(res))
}

func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	user, err := h.Auth.Profile(c.UserContext(), middleware.GetIdentity(c))
	if err != nil {
		return respondError(c, "user_profile_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, profileResponse{
		ID:                     user.ID,
		Name:                   user.Name,
		Email:                  user.Email,
		SharingCode:            user.SharingCode,
		HasPaidForLargeUploads: user.HasPaidForLargeUploads,
	})
}

func (h *UsersHandler) GetBySharingCode(c *fiber.Ctx) error {
	user, err := h.Auth.FindBySharingCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, "user_lookup_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, user.Summary())
}

func (h *UsersHandler) RegenerateSharingCode(c *fiber.Ctx) error {
	code, err := h.Auth.RegenerateSharingCode(c.UserContext(), middleware.GetIdentity(c))
	if err != nil {
		return respondError(c, "sharing_code_regenerate_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"sharingCode": code})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/skilllink-support/internal/api/dto"
	"github.com/spec-kit/skilllink-support/internal/service"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// PassportHandler serves the skill passport API.
type PassportHandler struct {
	service *service.PassportService
}

// NewPassportHandler constructs handler.
func NewPassportHandler(passportService *service.PassportService) *PassportHandler {
	return &PassportHandler{service: passportService}
}

// Root GET /.
func (h *PassportHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"msg": "SkillLink Backend alive"})
}

// Mint POST /api/passport/mint.
func (h *PassportHandler) Mint(c *fiber.Ctx) error {
	var req dto.MintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("userId and metadata required", nil)
	}
	outcome, err := h.service.Mint(c.UserContext(), req.UserID, req.Metadata)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"result":  dto.NewMintResultResponse(outcome.Mint, outcome.Record),
	})
}

// Profile GET /api/user/:id.
func (h *PassportHandler) Profile(c *fiber.Ctx) error {
	profile, err := h.service.Profile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": dto.NewProfileResponse(profile)})
}

// Passports GET /api/user/:id/passports.
func (h *PassportHandler) Passports(c *fiber.Ctx) error {
	records, err := h.service.Passports(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"passports": dto.NewPassportResponses(records)})
}

// Students GET /api/recruiter/students.
func (h *PassportHandler) Students(c *fiber.Ctx) error {
	students, err := h.service.Students(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"students": dto.NewProfileResponses(students)})
}

// AdminStats GET /api/admin/stats.
func (h *PassportHandler) AdminStats(c *fiber.Ctx) error {
	stats, err := h.service.PlatformStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.StatsResponse{Users: stats.Users, Certificates: stats.Certificates})
}

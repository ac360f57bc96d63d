package controller

import (
	"notesnap-gateway/internal/dto"
	"notesnap-gateway/internal/pkg/serverutils"
	"notesnap-gateway/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPreferenceController interface {
	RegisterRoutes(r fiber.Router)
	GetDarkMode(ctx *fiber.Ctx) error
	SetDarkMode(ctx *fiber.Ctx) error
}

type preferenceController struct {
	service service.IPreferenceService
}

func NewPreferenceController(service service.IPreferenceService) IPreferenceController {
	return &preferenceController{service: service}
}

func (c *preferenceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/preferences", serverutils.JwtMiddleware)
	h.Get("/dark-mode", c.GetDarkMode)
	h.Put("/dark-mode", c.SetDarkMode)
}

func (c *preferenceController) GetDarkMode(ctx *fiber.Ctx) error {
	res, err := c.service.DarkMode(ctx.Context(), userId(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Preference fetched",
		"data":    res,
	})
}

func (c *preferenceController) SetDarkMode(ctx *fiber.Ctx) error {
	var req dto.SetDarkModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.SetDarkMode(ctx.Context(), userId(ctx), req.DarkMode)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Preference saved",
		"data":    res,
	})
}

package controller

import (
	"errors"
	"io"

	"notesnap-gateway/internal/dto"
	"notesnap-gateway/internal/entity"
	"notesnap-gateway/internal/pkg/serverutils"
	"notesnap-gateway/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	SelectFile(ctx *fiber.Ctx) error
	Extract(ctx *fiber.Ctx) error
	ChangeAccuracy(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	UpdateText(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	Workspace(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions", serverutils.JwtMiddleware)
	h.Get("/", c.List)
	h.Post("/select-file", c.SelectFile)
	h.Post("/extract", c.Extract)
	h.Post("/accuracy", c.ChangeAccuracy)
	h.Post("/chat", c.Chat)
	h.Get("/active", c.Workspace)
	h.Put("/active/text", c.UpdateText)
	h.Delete("/active", c.Clear)
}

// SelectFile accepts a multipart upload, validates it and kicks off the
// extraction pipeline. The response carries the resulting workspace and
// the outcome of the pipeline run.
func (c *sessionController) SelectFile(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "file is required",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	file := &entity.SelectedFile{
		Name:     fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	}

	res, err := c.service.SelectFile(ctx.Context(), userId(ctx), accessToken(ctx), file)
	if err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "File processed",
		"data":    res,
	})
}

func (c *sessionController) Extract(ctx *fiber.Ctx) error {
	var req dto.ExtractRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return err
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return sessionError(ctx, err)
	}

	res, err := c.service.Extract(ctx.Context(), userId(ctx), accessToken(ctx), entity.AccuracyTier(req.Accuracy))
	if err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Extraction complete",
		"data":    res,
	})
}

func (c *sessionController) ChangeAccuracy(ctx *fiber.Ctx) error {
	var req dto.ChangeAccuracyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return sessionError(ctx, err)
	}

	res, err := c.service.ChangeAccuracy(ctx.Context(), userId(ctx), accessToken(ctx), entity.AccuracyTier(req.Accuracy))
	if err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Accuracy updated",
		"data":    res,
	})
}

func (c *sessionController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatSubmitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return sessionError(ctx, err)
	}

	res, err := c.service.ChatSubmit(ctx.Context(), userId(ctx), accessToken(ctx), req.Message)
	if err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Reply generated",
		"data":    res,
	})
}

func (c *sessionController) UpdateText(ctx *fiber.Ctx) error {
	var req dto.UpdateTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.UpdateText(ctx.Context(), userId(ctx), req.ExtractedText)
	if err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Text updated",
		"data":    res,
	})
}

func (c *sessionController) Clear(ctx *fiber.Ctx) error {
	if err := c.service.Clear(ctx.Context(), userId(ctx)); err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Workspace cleared",
		"data":    nil,
	})
}

func (c *sessionController) Workspace(ctx *fiber.Ctx) error {
	res, err := c.service.Workspace(ctx.Context(), userId(ctx))
	if err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Workspace fetched",
		"data":    res,
	})
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	res, err := c.service.ListSessions(ctx.Context(), userId(ctx), accessToken(ctx))
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Sessions fetched",
		"data":    res,
	})
}

// sessionError maps orchestrator errors onto the response envelope.
// Validation failures are 400, missing prerequisites are 409, anything
// else means a collaborator misbehaved.
func sessionError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway

	var validationErr *serverutils.ValidationError
	switch {
	case errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrInvalidAccuracy),
		errors.Is(err, service.ErrEmptyChatMessage),
		errors.As(err, &validationErr):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrNoActiveFile),
		errors.Is(err, service.ErrNoActiveSession):
		status = fiber.StatusConflict
	}

	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    status,
		"message": err.Error(),
	})
}

func userId(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals("user_id").(string)
	return id
}

func accessToken(ctx *fiber.Ctx) string {
	token, _ := ctx.Locals("access_token").(string)
	return token
}

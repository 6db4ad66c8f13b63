package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coordination-service/internal/api/dto"
	"github.com/spec-kit/coordination-service/internal/auth"
	"github.com/spec-kit/coordination-service/internal/service"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// WorkHandler exposes the stage pipeline endpoints.
type WorkHandler struct {
	pipeline *service.PipelineService
}

// NewWorkHandler constructs handler.
func NewWorkHandler(pipeline *service.PipelineService) *WorkHandler {
	return &WorkHandler{pipeline: pipeline}
}

// ListStage GET /work/stage/:stageKey.
func (h *WorkHandler) ListStage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)
	items, err := h.pipeline.ListAtStage(c.UserContext(), operatorFrom(principal), c.Params("stageKey"), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.WorkItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, workItemResponse(&items[i]))
	}
	return respondOK(c, http.StatusOK, resp)
}

// ClaimNext POST /work/stage/:stageKey/next.
func (h *WorkHandler) ClaimNext(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	assignment, err := h.pipeline.ClaimNext(c.UserContext(), operatorFrom(principal), c.Params("stageKey"))
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, assignmentResponse(assignment))
}

// ClaimSpecific POST /work/orders/:id/stage/:stageKey/claim.
func (h *WorkHandler) ClaimSpecific(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	assignment, err := h.pipeline.ClaimSpecific(c.UserContext(), operatorFrom(principal), c.Params("id"), c.Params("stageKey"))
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, assignmentResponse(assignment))
}

// Start POST /work/orders/:id/stage/:stageKey/start.
func (h *WorkHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	assignment, err := h.pipeline.Start(c.UserContext(), operatorFrom(principal), c.Params("id"), c.Params("stageKey"))
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, assignmentResponse(assignment))
}

// Complete POST /work/orders/:id/stage/:stageKey/complete.
func (h *WorkHandler) Complete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	assignment, err := h.pipeline.Complete(c.UserContext(), operatorFrom(principal), c.Params("id"), c.Params("stageKey"))
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, assignmentResponse(assignment))
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

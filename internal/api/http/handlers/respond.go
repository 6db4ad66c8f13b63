package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coordination-service/internal/api/dto"
	"github.com/spec-kit/coordination-service/internal/auth"
	"github.com/spec-kit/coordination-service/internal/domain"
	"github.com/spec-kit/coordination-service/internal/service"
)

func respondOK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(dto.Envelope{OK: true, Data: data, Message: "ok"})
}

func operatorFrom(principal *auth.Principal) service.Operator {
	role := ""
	if len(principal.Roles) > 0 {
		role = principal.Roles[0]
	}
	return service.Operator{
		TenantID: principal.TenantID,
		BranchID: principal.BranchID,
		UserID:   principal.UserID,
		Role:     role,
	}
}

func workItemResponse(item *domain.WorkItem) dto.WorkItemResponse {
	return dto.WorkItemResponse{
		ID:              item.ID,
		OrderNumber:     item.OrderNumber,
		CheckoutMode:    item.CheckoutMode,
		SourceTicketID:  item.SourceTicketID,
		CurrentStageKey: item.CurrentStageKey,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

func assignmentResponse(a *domain.StageAssignment) dto.StageAssignmentResponse {
	return dto.StageAssignmentResponse{
		ID:          a.ID,
		WorkItemID:  a.WorkItemID,
		StageKey:    a.StageKey,
		Role:        a.Role,
		AssignedTo:  a.AssignedTo,
		Status:      a.Status,
		AssignedAt:  a.AssignedAt,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
	}
}

func ticketResponse(t *domain.ServiceTicket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          t.ID,
		ServiceType: t.ServiceType,
		Code:        t.Code,
		Seq:         t.Seq,
		Status:      t.Status,
		AssignedTo:  t.AssignedToUserID,
		CreatedAt:   t.CreatedAt,
		CalledAt:    t.CalledAt,
		ServingAt:   t.ServingAt,
		ClosedAt:    t.ClosedAt,
	}
}

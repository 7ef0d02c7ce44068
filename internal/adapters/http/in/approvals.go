package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// ApprovalHandler serves /approvals/:id/approve and /approvals/:id/reject.
type ApprovalHandler struct {
	Approval *command.ApprovalService
}

// DecisionRequest is the shared body of the approve/reject endpoints.
type DecisionRequest struct {
	DeciderID   string  `json:"decider_id" validate:"required"`
	DeciderRole string  `json:"decider_role" validate:"required"`
	Reason      *string `json:"reason"`
}

// Approve handles POST /approvals/:id/approve.
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, mmodel.DecisionApprove)
}

// Reject handles POST /approvals/:id/reject.
func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, mmodel.DecisionReject)
}

func (h *ApprovalHandler) decide(c *fiber.Ctx, decision mmodel.Decision) error {
	return mhttp.WithBody(&DecisionRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*DecisionRequest)

		request, err := h.Approval.Decide(c.UserContext(), command.DecideCommand{
			RequestID:   c.Params("id"),
			DeciderID:   req.DeciderID,
			DeciderRole: req.DeciderRole,
			Decision:    decision,
			Reason:      req.Reason,
		})
		if err != nil {
			return mhttp.WithError(c, err)
		}

		return c.JSON(request)
	})(c)
}

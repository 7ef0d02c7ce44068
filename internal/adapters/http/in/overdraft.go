package in

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
)

// OverdraftHandler serves POST /overdraft-facilities: a staff member
// requests an overdraft facility for an account, which only takes effect
// once OverdraftActivationHandler runs on an APPROVED request.
type OverdraftHandler struct {
	Approval *command.ApprovalService
}

// CreateOverdraftFacilityRequest is the body of POST /overdraft-facilities.
type CreateOverdraftFacilityRequest struct {
	AccountID    string  `json:"account_id" validate:"required"`
	LimitMinor   int64   `json:"limit_minor" validate:"required,gt=0"`
	ValidFrom    *string `json:"valid_from"`
	ValidTo      *string `json:"valid_to"`
	MakerStaffID string  `json:"maker_staff_id" validate:"required"`
}

// Create handles POST /overdraft-facilities.
func (h *OverdraftHandler) Create(c *fiber.Ctx) error {
	return mhttp.WithBody(&CreateOverdraftFacilityRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*CreateOverdraftFacilityRequest)

		submitPayload := map[string]any{
			"facility_id": uuid.NewString(),
			"account_id":  req.AccountID,
			"limit_minor": req.LimitMinor,
			"valid_from":  req.ValidFrom,
			"valid_to":    req.ValidTo,
		}

		request, err := h.Approval.Submit(c.UserContext(), command.SubmitCommand{
			ApprovalType: "OVERDRAFT_ACTIVATION",
			Route:        c.Path(),
			MakerStaffID: req.MakerStaffID,
			Payload:      submitPayload,
		})
		if err != nil {
			return mhttp.WithError(c, err)
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"request_id": request.ID,
			"state":      request.State,
		})
	})(c)
}

package in

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/money"
)

// FloatHandler serves /float/* agent float-movement endpoints. Unlike the
// /tx/* handlers, these route through ApprovalService first: a matching
// policy defers the movement to maker-checker instead of posting it
// immediately, per the ApprovalRequired column of §6's endpoint table.
type FloatHandler struct {
	Posting  *command.PostingService
	Approval *command.ApprovalService
}

// FloatRequest is the body of POST /float/top-up and POST /float/withdrawal.
type FloatRequest struct {
	AgentCode      string `json:"agent_code" validate:"required"`
	FloatAccountID string `json:"float_account_id" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
	MakerStaffID   string `json:"maker_staff_id" validate:"required"`
}

// TopUp handles POST /float/top-up: crediting an agent's float account from
// the agent's own funding account.
func (h *FloatHandler) TopUp(c *fiber.Ctx) error {
	return mhttp.WithBody(&FloatRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*FloatRequest)
		return h.move(c, "FLOAT_TOP_UP", req.AgentCode, req.FloatAccountID, req)
	})(c)
}

// Withdrawal handles POST /float/withdrawal: debiting an agent's float
// account back to the agent's own funding account.
func (h *FloatHandler) Withdrawal(c *fiber.Ctx) error {
	return mhttp.WithBody(&FloatRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*FloatRequest)
		return h.move(c, "FLOAT_WITHDRAWAL", req.FloatAccountID, req.AgentCode, req)
	})(c)
}

func (h *FloatHandler) move(c *fiber.Ctx, txnType, debitAccount, creditAccount string, req *FloatRequest) error {
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	payload := map[string]any{
		"txn_type":        txnType,
		"agent_code":      req.AgentCode,
		"float_account":   req.FloatAccountID,
		"debit_account":   debitAccount,
		"credit_account":  creditAccount,
		"amount_minor":    amountMinor,
		"currency":        req.Currency,
		"idempotency_key": req.IdempotencyKey,
		"correlation_id":  mhttp.CorrelationID(c),
	}

	request, err := h.Approval.Submit(c.UserContext(), command.SubmitCommand{
		ApprovalType: txnType,
		Route:        c.Path(),
		MakerStaffID: req.MakerStaffID,
		Payload:      payload,
	})

	switch {
	case err == nil:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"request_id": request.ID,
			"state":      request.State,
		})
	case errors.Is(err, constant.ErrNoApprovalPolicy):
		return h.postDirect(c, txnType, debitAccount, creditAccount, amountMinor, req)
	default:
		return mhttp.WithError(c, err)
	}
}

func (h *FloatHandler) postDirect(c *fiber.Ctx, txnType, debitAccount, creditAccount string, amountMinor int64, req *FloatRequest) error {
	cmd := command.PostCommand{
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  mhttp.CorrelationID(c),
		TxnType:        txnType,
		Currency:       req.Currency,
		ActorType:      mmodel.ActorAgent,
		ActorID:        req.AgentCode,
		Entries: []command.EntryInput{
			{AccountID: debitAccount, EntryType: mmodel.EntryDebit, AmountMinor: amountMinor},
			{AccountID: creditAccount, EntryType: mmodel.EntryCredit, AmountMinor: amountMinor},
		},
	}

	receipt, err := h.Posting.Post(c.UserContext(), cmd)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"posting_id":     receipt.JournalID,
		"state":          receipt.State,
		"correlation_id": receipt.CorrelationID,
	})
}

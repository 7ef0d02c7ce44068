// Package in implements the fiber route handlers for the posting API
// defined in §6, decoding and validating requests with pkg/mhttp and
// translating domain errors back through pkg/mhttp.WithError.
package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/money"
)

// PostingHandler serves /tx/* transfer endpoints over PostingService.
type PostingHandler struct {
	Posting *command.PostingService
}

// P2PRequest is the body of POST /tx/p2p.
type P2PRequest struct {
	SenderMSISDN   string `json:"sender_msisdn" validate:"required"`
	ReceiverMSISDN string `json:"receiver_msisdn" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

// P2P handles POST /tx/p2p: a customer-to-customer wallet transfer.
func (h *PostingHandler) P2P(c *fiber.Ctx) error {
	return mhttp.WithBody(&P2PRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*P2PRequest)

		return h.post(c, mmodel.ActorCustomer, req.SenderMSISDN, "P2P", req.SenderMSISDN, req.ReceiverMSISDN,
			req.Amount, req.Currency, req.IdempotencyKey)
	})(c)
}

// B2BRequest is the body of POST /tx/b2b.
type B2BRequest struct {
	SenderStoreCode   string `json:"sender_store_code" validate:"required"`
	ReceiverStoreCode string `json:"receiver_store_code" validate:"required"`
	Amount            string `json:"amount" validate:"required"`
	Currency          string `json:"currency" validate:"required,len=3"`
	IdempotencyKey    string `json:"idempotency_key" validate:"required"`
}

// B2B handles POST /tx/b2b: a store-to-store transfer.
func (h *PostingHandler) B2B(c *fiber.Ctx) error {
	return mhttp.WithBody(&B2BRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*B2BRequest)

		return h.post(c, mmodel.ActorMerchant, req.SenderStoreCode, "B2B", req.SenderStoreCode, req.ReceiverStoreCode,
			req.Amount, req.Currency, req.IdempotencyKey)
	})(c)
}

// MerchantPaymentRequest is the body of POST /tx/merchant-payment.
type MerchantPaymentRequest struct {
	CustomerMSISDN string `json:"customer_msisdn" validate:"required"`
	StoreCode      string `json:"store_code" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

// MerchantPayment handles POST /tx/merchant-payment: a customer-to-merchant
// payment.
func (h *PostingHandler) MerchantPayment(c *fiber.Ctx) error {
	return mhttp.WithBody(&MerchantPaymentRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*MerchantPaymentRequest)

		return h.post(c, mmodel.ActorCustomer, req.CustomerMSISDN, "MERCHANT_PAYMENT", req.CustomerMSISDN, req.StoreCode,
			req.Amount, req.Currency, req.IdempotencyKey)
	})(c)
}

func (h *PostingHandler) post(c *fiber.Ctx, actorType mmodel.ActorType, actorID, txnType, payerAccount, payeeAccount, amount, currency, idempotencyKey string) error {
	amountMinor, err := money.ParseMinor(amount)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	cmd := command.PostCommand{
		IdempotencyKey: idempotencyKey,
		CorrelationID:  mhttp.CorrelationID(c),
		TxnType:        txnType,
		Currency:       currency,
		ActorType:      actorType,
		ActorID:        actorID,
		Entries: []command.EntryInput{
			{AccountID: payerAccount, EntryType: mmodel.EntryDebit, AmountMinor: amountMinor},
			{AccountID: payeeAccount, EntryType: mmodel.EntryCredit, AmountMinor: amountMinor},
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

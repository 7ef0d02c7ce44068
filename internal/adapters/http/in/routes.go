package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
)

// Routes wires every §6 endpoint onto app, backed by the given UseCase.
func Routes(app *fiber.App, uc *command.UseCase, version string) {
	app.Use(mhttp.WithCorrelationID())
	app.Use(mhttp.WithHTTPLogging(uc.Logger))

	app.Get("/health", mhttp.Ping)
	app.Get("/version", mhttp.Version(version))

	posting := &PostingHandler{Posting: &command.PostingService{UC: uc}}
	float := &FloatHandler{Posting: &command.PostingService{UC: uc}, Approval: &command.ApprovalService{UC: uc}}
	ledger := &LedgerHandler{Query: &command.QueryService{UC: uc}, Verify: &command.VerifyService{UC: uc}}
	approvals := &ApprovalHandler{Approval: &command.ApprovalService{UC: uc}}
	feeMatrix := &FeeMatrixHandler{FeeMatrix: &command.FeeMatrixService{UC: uc}}
	overdraft := &OverdraftHandler{Approval: &command.ApprovalService{UC: uc}}

	tx := app.Group("/tx")
	tx.Post("/p2p", posting.P2P)
	tx.Post("/b2b", posting.B2B)
	tx.Post("/merchant-payment", posting.MerchantPayment)

	floatGroup := app.Group("/float")
	floatGroup.Post("/top-up", float.TopUp)
	floatGroup.Post("/withdrawal", float.Withdrawal)

	app.Get("/balance", ledger.Balance)

	ops := app.Group("/ops/ledger")
	ops.Get("/journal/:id", ledger.Journal)
	ops.Get("/verify", ledger.Verify)

	approvalsGroup := app.Group("/approvals")
	approvalsGroup.Post("/:id/approve", approvals.Approve)
	approvalsGroup.Post("/:id/reject", approvals.Reject)

	app.Post("/fee-matrix/versions", feeMatrix.CreateVersion)
	app.Post("/overdraft-facilities", overdraft.Create)
}

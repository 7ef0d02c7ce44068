package in

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
)

var errMissingOwnerID = fmt.Errorf("%w: owner_id", constant.ErrMissingRequiredField)

// LedgerHandler serves the read-side /balance and /ops/ledger/* endpoints.
type LedgerHandler struct {
	Query  *command.QueryService
	Verify *command.VerifyService
}

// Balance handles GET /balance?owner_type&owner_id&currency. owner_id is
// treated directly as the ledger account id.
func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	accountID := c.Query("owner_id")
	if accountID == "" {
		return mhttp.WithError(c, errMissingOwnerID)
	}

	bal, err := h.Query.Balance(c.UserContext(), accountID)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return c.JSON(bal)
}

// Journal handles GET /ops/ledger/journal/:id.
func (h *LedgerHandler) Journal(c *fiber.Ctx) error {
	journal, lines, err := h.Query.Journal(c.UserContext(), c.Params("id"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return c.JSON(fiber.Map{"journal": journal, "lines": lines})
}

// Verify handles GET /ops/ledger/verify?from&to, recomputing the hash
// chain across the requested window and reporting any mismatches.
func (h *LedgerHandler) Verify(c *fiber.Ctx) error {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	report, err := h.Verify.Verify(c.UserContext(), from, to)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return c.JSON(report)
}

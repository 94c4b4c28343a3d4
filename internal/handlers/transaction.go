package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"cashup/internal/middleware"
	"cashup/internal/models"
	"cashup/internal/services/reconcile"
	"cashup/internal/utils"
	"cashup/internal/validation"
)

type TransactionHandler struct {
	reconcileService reconcile.Service
}

func NewTransactionHandler(reconcileService reconcile.Service) *TransactionHandler {
	return &TransactionHandler{reconcileService: reconcileService}
}

// Create records a mobile-money payment reported by the gateway. The record
// stays unverified until an operator reconciles it.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var input struct {
		TransactionID string          `json:"transaction_id"`
		PhoneNumber   string          `json:"phone_number"`
		Amount        decimal.Decimal `json:"amount"`
		Method        string          `json:"method"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Required("transaction_id", input.TransactionID)
	v.MaxLength("transaction_id", input.TransactionID, 100)
	v.Phone("phone_number", input.PhoneNumber)
	v.Positive("amount", input.Amount)
	v.OneOf("method", input.Method, models.MethodBkash, models.MethodNagad, models.MethodRocket)
	if !v.Valid() {
		return invalid(c, v.Errors)
	}

	tx, err := h.reconcileService.Create(c.Context(), reconcile.CreateInput{
		BuyerID:       middleware.BuyerID(c),
		TransactionID: input.TransactionID,
		PhoneNumber:   input.PhoneNumber,
		Amount:        input.Amount,
		Method:        input.Method,
	})
	if err != nil {
		return fail(c, err)
	}

	return utils.Created(c, fiber.Map{"transaction": tx})
}

// Verify runs the reconciliation waterfall for one transaction.
func (h *TransactionHandler) Verify(c *fiber.Ctx) error {
	transactionID, err := c.ParamsInt("id")
	if err != nil || transactionID <= 0 {
		return utils.BadRequest(c, "invalid transaction id")
	}

	tx, err := h.reconcileService.Verify(c.Context(), uint(transactionID), middleware.ActorID(c))
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "transaction reconciled",
		"transaction": tx,
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"cashup/internal/middleware"
	"cashup/internal/services/transfer"
	"cashup/internal/utils"
)

type TransferHandler struct {
	transferService transfer.Service
}

func NewTransferHandler(transferService transfer.Service) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// ToCashup moves funds from the main balance into the cashup pool.
func (h *TransferHandler) ToCashup(c *fiber.Ctx) error {
	var input struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	res, err := h.transferService.ToCashup(c.Context(), middleware.BuyerID(c), input.Amount, middleware.ActorID(c))
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":        "transfer successful",
		"amount":         input.Amount,
		"main_balance":   res.MainBalance,
		"cashup_balance": res.CashupBalance,
	})
}

// RequestOwingConversion stages an amount for conversion into the owing pool.
func (h *TransferHandler) RequestOwingConversion(c *fiber.Ctx) error {
	var input struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	requested, err := h.transferService.RequestOwingConversion(c.Context(), middleware.BuyerID(c), input.Amount, middleware.ActorID(c))
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":           "conversion requested",
		"requested_balance": requested,
	})
}

// ReconcileOwingRequest is the operator step that releases a staged request.
func (h *TransferHandler) ReconcileOwingRequest(c *fiber.Ctx) error {
	depositID, err := c.ParamsInt("id")
	if err != nil || depositID <= 0 {
		return utils.BadRequest(c, "invalid deposit id")
	}

	dep, err := h.transferService.ReconcileOwingRequest(c.Context(), uint(depositID), middleware.ActorID(c))
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":       "conversion reconciled",
		"owing_deposit": dep,
	})
}

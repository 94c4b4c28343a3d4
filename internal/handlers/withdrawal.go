package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"cashup/internal/middleware"
	"cashup/internal/models"
	"cashup/internal/services/withdrawal"
	"cashup/internal/utils"
	"cashup/internal/validation"
)

type WithdrawalHandler struct {
	withdrawalService withdrawal.Service
}

func NewWithdrawalHandler(withdrawalService withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// Request files a pending withdrawal against one of the three pools.
func (h *WithdrawalHandler) Request(c *fiber.Ctx) error {
	var input struct {
		Source string          `json:"source"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Positive("amount", input.Amount)
	v.OneOf("source", input.Source,
		string(models.WithdrawalSourceMainBalance),
		string(models.WithdrawalSourceCashupBalance),
		string(models.WithdrawalSourceCompoundingProfit),
	)
	if !v.Valid() {
		return invalid(c, v.Errors)
	}

	w, err := h.withdrawalService.Request(c.Context(), middleware.BuyerID(c), models.WithdrawalSource(input.Source), input.Amount)
	if err != nil {
		return fail(c, err)
	}

	return utils.Created(c, fiber.Map{"withdrawal": w})
}

// Approve settles a pending withdrawal. The outcome tells the operator
// whether funds actually moved or the request was auto-rejected.
func (h *WithdrawalHandler) Approve(c *fiber.Ctx) error {
	withdrawalID, err := c.ParamsInt("id")
	if err != nil || withdrawalID <= 0 {
		return utils.BadRequest(c, "invalid withdrawal id")
	}

	w, outcome, err := h.withdrawalService.Approve(c.Context(), uint(withdrawalID), middleware.ActorID(c))
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"withdrawal": w,
		"outcome":    outcome,
	})
}

func (h *WithdrawalHandler) Reject(c *fiber.Ctx) error {
	withdrawalID, err := c.ParamsInt("id")
	if err != nil || withdrawalID <= 0 {
		return utils.BadRequest(c, "invalid withdrawal id")
	}

	w, err := h.withdrawalService.Reject(c.Context(), uint(withdrawalID), middleware.ActorID(c))
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{"withdrawal": w})
}

func (h *WithdrawalHandler) List(c *fiber.Ctx) error {
	source := models.WithdrawalSource(c.Query("source", string(models.WithdrawalSourceMainBalance)))

	v := validation.New()
	v.OneOf("source", string(source),
		string(models.WithdrawalSourceMainBalance),
		string(models.WithdrawalSourceCashupBalance),
		string(models.WithdrawalSourceCompoundingProfit),
	)
	if !v.Valid() {
		return invalid(c, v.Errors)
	}

	rows, err := h.withdrawalService.List(c.Context(), middleware.BuyerID(c), source)
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"withdrawals": rows})
}

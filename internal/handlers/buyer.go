package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"cashup/internal/middleware"
	"cashup/internal/services/buyer"
	"cashup/internal/utils"
	"cashup/internal/validation"
)

type BuyerHandler struct {
	buyerService buyer.Service
}

func NewBuyerHandler(buyerService buyer.Service) *BuyerHandler {
	return &BuyerHandler{buyerService: buyerService}
}

// Register creates a buyer and their two deposit pools in one shot.
func (h *BuyerHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Name        string     `json:"name"`
		PhoneNumber string     `json:"phone_number"`
		Username    string     `json:"username"`
		DateOfBirth *time.Time `json:"date_of_birth"`
		Gender      string     `json:"gender"`
		Address     string     `json:"address"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Required("name", input.Name)
	v.MaxLength("name", input.Name, 100)
	v.Phone("phone_number", input.PhoneNumber)
	if input.Gender != "" {
		v.OneOf("gender", input.Gender, "M", "F", "O")
	}
	if !v.Valid() {
		return invalid(c, v.Errors)
	}

	b, err := h.buyerService.Create(c.Context(), buyer.CreateInput{
		Name:        input.Name,
		PhoneNumber: input.PhoneNumber,
		Username:    input.Username,
		DateOfBirth: input.DateOfBirth,
		Gender:      input.Gender,
		Address:     input.Address,
	})
	if err != nil {
		return fail(c, err)
	}

	return utils.Created(c, fiber.Map{"buyer": b})
}

func (h *BuyerHandler) GetProfile(c *fiber.Ctx) error {
	b, err := h.buyerService.Get(c.Context(), middleware.BuyerID(c))
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"buyer": b})
}

func (h *BuyerHandler) GetCashupDeposit(c *fiber.Ctx) error {
	dep, err := h.buyerService.GetCashupDeposit(c.Context(), middleware.BuyerID(c))
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"cashup_deposit": dep})
}

func (h *BuyerHandler) GetOwingDeposit(c *fiber.Ctx) error {
	dep, err := h.buyerService.GetOwingDeposit(c.Context(), middleware.BuyerID(c))
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"owing_deposit": dep})
}

func (h *BuyerHandler) ListCashupProfitHistory(c *fiber.Ctx) error {
	rows, err := h.buyerService.ListCashupProfitHistory(c.Context(), middleware.BuyerID(c))
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"history": rows})
}

func (h *BuyerHandler) ListOwingProfitHistory(c *fiber.Ctx) error {
	rows, err := h.buyerService.ListOwingProfitHistory(c.Context(), middleware.BuyerID(c))
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"history": rows})
}

// Deposit credits the buyer's main balance directly.
func (h *BuyerHandler) Deposit(c *fiber.Ctx) error {
	var input struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	balance, err := h.buyerService.Deposit(c.Context(), middleware.BuyerID(c), input.Amount)
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "deposit successful",
		"amount":      input.Amount,
		"new_balance": balance,
	})
}

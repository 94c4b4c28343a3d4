package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cashup/internal/middleware"
	"cashup/internal/services/purchase"
	"cashup/internal/utils"
)

type PurchaseHandler struct {
	purchaseService purchase.Service
}

func NewPurchaseHandler(purchaseService purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// PlaceOrder carts an item at the catalog's current prices.
func (h *PurchaseHandler) PlaceOrder(c *fiber.Ctx) error {
	var input struct {
		ItemID   uint `json:"item_id"`
		Quantity uint `json:"quantity"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.ItemID == 0 {
		return utils.BadRequest(c, "item_id is required")
	}

	p, err := h.purchaseService.PlaceOrder(c.Context(), middleware.BuyerID(c), input.ItemID, input.Quantity)
	if err != nil {
		return fail(c, err)
	}

	return utils.Created(c, fiber.Map{"purchase": p})
}

// Confirm settles a carted purchase from the buyer's main balance.
func (h *PurchaseHandler) Confirm(c *fiber.Ctx) error {
	purchaseID, err := c.ParamsInt("id")
	if err != nil || purchaseID <= 0 {
		return utils.BadRequest(c, "invalid purchase id")
	}

	p, err := h.purchaseService.Confirm(c.Context(), uint(purchaseID))
	if err != nil {
		return fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":  "purchase confirmed",
		"purchase": p,
	})
}

func (h *PurchaseHandler) ListCart(c *fiber.Ctx) error {
	rows, err := h.purchaseService.ListCart(c.Context(), middleware.BuyerID(c))
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"purchases": rows})
}

func (h *PurchaseHandler) ListConfirmed(c *fiber.Ctx) error {
	rows, err := h.purchaseService.ListConfirmed(c.Context(), middleware.BuyerID(c))
	if err != nil {
		return fail(c, err)
	}
	return utils.Success(c, fiber.Map{"purchases": rows})
}

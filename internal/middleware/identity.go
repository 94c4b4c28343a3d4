// Package middleware provides HTTP middleware components for the application.
// Request identity arrives from the edge gateway, which has already
// authenticated the caller, so handlers only need the resolved IDs.
package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"cashup/internal/utils"
)

const (
	buyerHeader = "X-Buyer-ID"
	actorHeader = "X-Actor-ID"

	buyerLocal = "buyerID"
	actorLocal = "actorID"
)

// Identity extracts the buyer and actor IDs set by the gateway and stores
// them in the request context. The buyer ID is required on every buyer-scoped
// route; the actor ID is present only when an operator acts on the buyer's
// behalf.
func Identity(c *fiber.Ctx) error {
	buyerID, err := parseIDHeader(c, buyerHeader)
	if err != nil {
		return utils.BadRequest(c, "missing or invalid "+buyerHeader+" header")
	}
	c.Locals(buyerLocal, buyerID)

	if raw := c.Get(actorHeader); raw != "" {
		actorID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || actorID == 0 {
			return utils.BadRequest(c, "invalid "+actorHeader+" header")
		}
		c.Locals(actorLocal, uint(actorID))
	}

	return c.Next()
}

// RequireActor guards operator-only routes.
func RequireActor(c *fiber.Ctx) error {
	if _, ok := c.Locals(actorLocal).(uint); !ok {
		return utils.Forbidden(c, "operator identity required")
	}
	return c.Next()
}

// BuyerID returns the buyer ID stored by Identity.
func BuyerID(c *fiber.Ctx) uint {
	id, _ := c.Locals(buyerLocal).(uint)
	return id
}

// ActorID returns the operator ID, or zero when the buyer acts for themselves.
func ActorID(c *fiber.Ctx) uint {
	id, _ := c.Locals(actorLocal).(uint)
	return id
}

func parseIDHeader(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Get(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, strconv.ErrRange
	}
	return uint(id), nil
}

// Package handlers contains the HTTP layer. Handlers parse the request,
// delegate to a service, and translate the result to a JSON response.
package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	domain "cashup/internal/errors"
	"cashup/internal/repositories"
	"cashup/internal/utils"
)

// fail maps service errors to HTTP responses. Domain errors keep their code
// in the body so clients can branch without parsing messages.
func fail(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrMissingBuyer),
		errors.Is(err, domain.ErrNoPoolFound):
		status = fiber.StatusNotFound
	case errors.Is(err, repositories.ErrBuyerNotFound),
		errors.Is(err, repositories.ErrCashupDepositNotFound),
		errors.Is(err, repositories.ErrOwingDepositNotFound),
		errors.Is(err, repositories.ErrWithdrawalNotFound),
		errors.Is(err, repositories.ErrTransactionNotFound),
		errors.Is(err, repositories.ErrItemNotFound),
		errors.Is(err, repositories.ErrPurchaseNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAlreadyFinalized),
		errors.Is(err, domain.ErrAlreadyReconciled),
		errors.Is(err, domain.ErrNoPendingRequest),
		errors.Is(err, domain.ErrDuplicateReference),
		errors.Is(err, domain.ErrConcurrentModification):
		status = fiber.StatusConflict
	default:
		log.Printf("unhandled service error: %v", err)
		return utils.InternalError(c, "internal server error")
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		return utils.Respond(c, status, fiber.Map{"error": de.Message, "code": de.Code})
	}
	return utils.Respond(c, status, fiber.Map{"error": err.Error()})
}

func invalid(c *fiber.Ctx, fields map[string]string) error {
	return utils.Respond(c, fiber.StatusBadRequest, fiber.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}

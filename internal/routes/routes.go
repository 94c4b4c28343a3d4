// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including the identity middleware the gateway relies on.
package routes

import (
	"cashup/internal/handlers"
	"cashup/internal/middleware"
	"cashup/internal/repositories"
	"cashup/internal/services/buyer"
	"cashup/internal/services/purchase"
	"cashup/internal/services/reconcile"
	"cashup/internal/services/transfer"
	"cashup/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	repo := repositories.NewLedgerRepository(db)
	cache := repositories.CacheService

	buyerService := buyer.NewService(repo, cache)
	transferService := transfer.NewService(repo, cache)
	withdrawalService := withdrawal.NewService(repo, cache)
	reconcileService := reconcile.NewService(repo, cache)
	purchaseService := purchase.NewService(repo, cache)

	buyerHandler := handlers.NewBuyerHandler(buyerService)
	transferHandler := handlers.NewTransferHandler(transferService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	transactionHandler := handlers.NewTransactionHandler(reconcileService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Registration carries no buyer identity yet.
	api.Post("/buyers", buyerHandler.Register)

	// Buyer-scoped routes. The gateway authenticates the caller and forwards
	// the resolved IDs in headers.
	scoped := api.Use(middleware.Identity)

	scoped.Get("/profile", buyerHandler.GetProfile)
	scoped.Post("/deposit", buyerHandler.Deposit)

	deposits := scoped.Group("/deposits")
	deposits.Get("/cashup", buyerHandler.GetCashupDeposit)
	deposits.Get("/cashup/history", buyerHandler.ListCashupProfitHistory)
	deposits.Get("/owing", buyerHandler.GetOwingDeposit)
	deposits.Get("/owing/history", buyerHandler.ListOwingProfitHistory)

	transfers := scoped.Group("/transfers")
	transfers.Post("/cashup", transferHandler.ToCashup)
	transfers.Post("/owing/request", transferHandler.RequestOwingConversion)
	transfers.Post("/owing/:id/reconcile", middleware.RequireActor, transferHandler.ReconcileOwingRequest)

	withdrawals := scoped.Group("/withdrawals")
	withdrawals.Post("/", withdrawalHandler.Request)
	withdrawals.Get("/", withdrawalHandler.List)
	withdrawals.Post("/:id/approve", middleware.RequireActor, withdrawalHandler.Approve)
	withdrawals.Post("/:id/reject", middleware.RequireActor, withdrawalHandler.Reject)

	transactions := scoped.Group("/transactions")
	transactions.Post("/", transactionHandler.Create)
	transactions.Post("/:id/verify", middleware.RequireActor, transactionHandler.Verify)

	purchases := scoped.Group("/purchases")
	purchases.Post("/", purchaseHandler.PlaceOrder)
	purchases.Get("/cart", purchaseHandler.ListCart)
	purchases.Get("/confirmed", purchaseHandler.ListConfirmed)
	purchases.Post("/:id/confirm", purchaseHandler.Confirm)
}

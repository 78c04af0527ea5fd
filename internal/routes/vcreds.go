package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/skillvault/vcreds-api/internal/middleware"
	"github.com/skillvault/vcreds-api/internal/vcreds"
)

// RegisterVCredsRoutes wires the credits endpoints. Payout processing sits
// behind the admin gate on top of the surrounding JWT middleware.
func RegisterVCredsRoutes(r fiber.Router, h *vcreds.Handler) {
	group := r.Group("/vcreds")
	group.Get("/balance", h.Balance)
	group.Post("/purchase/orders", h.CreateOrder)
	group.Post("/purchase/verify", h.VerifyPurchase)
	group.Post("/sell", h.Sell)
	group.Post("/sell/process/:transactionId", middleware.RequireAdmin(), h.ProcessPayout)
	group.Get("/transactions", h.Transactions)
	group.Get("/bank-details", h.GetBankDetails)
	group.Put("/bank-details", h.SaveBankDetails)
}

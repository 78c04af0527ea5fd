package vcreds

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/skillvault/vcreds-api/internal/ledger"
	"github.com/skillvault/vcreds-api/internal/validation"
)

// Handler exposes the VCreds HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a VCreds handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Balance returns the authenticated user's credit balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID := requesterID(c)
	balance, err := h.service.Balance(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": balance, "user_id": userID})
}

// CreateOrder opens a gateway checkout order for a credits plan.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if fieldErrs := validation.Validate(&req); fieldErrs != nil {
		return validationError(c, fieldErrs)
	}

	order, err := h.service.InitiatePurchase(c.UserContext(), requesterID(c), req.Plan, req.Credits, req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(CreateOrderResponse{
		OrderID:  order.OrderRef,
		Amount:   order.Amount,
		Currency: order.Currency,
	})
}

// VerifyPurchase checks the callback signature and credits the purchase.
func (h *Handler) VerifyPurchase(c *fiber.Ctx) error {
	var req VerifyPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if fieldErrs := validation.Validate(&req); fieldErrs != nil {
		return validationError(c, fieldErrs)
	}

	res, err := h.service.VerifyPurchase(c.UserContext(), requesterID(c), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return mapError(err)
	}

	message := "Payment verified and credits added successfully"
	if res.AlreadyCompleted {
		message = "Payment already verified"
	}
	return c.Status(http.StatusOK).JSON(VerifyPurchaseResponse{
		Success:      true,
		CreditsAdded: res.CreditsAdded,
		Balance:      res.Balance,
		Message:      message,
	})
}

// Sell creates a sell request, debiting the credits immediately.
func (h *Handler) Sell(c *fiber.Ctx) error {
	var req SellRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if fieldErrs := validation.Validate(&req); fieldErrs != nil {
		return validationError(c, fieldErrs)
	}

	res, err := h.service.InitiateSell(c.UserContext(), requesterID(c), req.Amount, req.BankDetails.toModel())
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(SellResponse{
		Success:                 true,
		TransactionID:           res.TransactionID,
		CreditsSold:             res.CreditsSold,
		NetAmount:               res.NetAmount,
		ProcessingFee:           res.ProcessingFee,
		Balance:                 res.Balance,
		EstimatedProcessingTime: res.ETA,
	})
}

// ProcessPayout triggers the bank transfer for a pending sell. The route is
// registered behind the admin gate.
func (h *Handler) ProcessPayout(c *fiber.Ctx) error {
	txID := c.Params("transactionId")
	res, err := h.service.ProcessPayout(c.UserContext(), txID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(PayoutResponse{
		Success:       true,
		TransactionID: res.TransactionID,
		PayoutID:      res.PayoutRef,
	})
}

// Transactions lists the user's history with pagination metadata.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", defaultPageSize)
	kind := c.Query("type")

	history, err := h.service.ListTransactions(c.UserContext(), requesterID(c), kind, page, limit)
	if err != nil {
		return mapError(err)
	}

	items := make([]TransactionResponse, 0, len(history.Transactions))
	for _, t := range history.Transactions {
		items = append(items, toTransactionResponse(t))
	}
	return c.Status(http.StatusOK).JSON(HistoryResponse{
		Transactions: items,
		Pagination: PaginationResponse{
			CurrentPage: history.Pagination.CurrentPage,
			PerPage:     history.Pagination.PerPage,
			Total:       history.Pagination.Total,
			TotalPages:  history.Pagination.TotalPages,
		},
	})
}

// GetBankDetails returns the stored payout destination, masked.
func (h *Handler) GetBankDetails(c *fiber.Ctx) error {
	details, err := h.service.BankDetails(c.UserContext(), requesterID(c))
	if errors.Is(err, ErrBankDetailsNotSet) {
		return c.Status(http.StatusOK).JSON(fiber.Map{"bank_details": nil})
	}
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"bank_details": details})
}

// SaveBankDetails validates and stores the payout destination.
func (h *Handler) SaveBankDetails(c *fiber.Ctx) error {
	var req BankDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if fieldErrs := validation.Validate(&req); fieldErrs != nil {
		return validationError(c, fieldErrs)
	}

	if err := h.service.SaveBankDetails(c.UserContext(), requesterID(c), req.toModel()); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "Bank details saved successfully"})
}

func requesterID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

func validationError(c *fiber.Ctx, fieldErrs map[string]string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": fieldErrs,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPlan),
		errors.Is(err, ErrSignatureInvalid),
		errors.Is(err, ErrBelowMinimumSell),
		errors.Is(err, ErrInvalidBankDetails),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ledger.ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyProcessed):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

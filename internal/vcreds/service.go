package vcreds

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skillvault/vcreds-api/internal/gateway"
	"github.com/skillvault/vcreds-api/internal/ledger"
	"github.com/skillvault/vcreds-api/internal/notification"
)

var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service drives the purchase and sell reconciliation workflows on top of
// the ledger, the transaction store and the payment gateway.
type Service struct {
	ledger      ledger.Ledger
	store       Store
	gateway     gateway.Gateway
	pricing     Pricing
	callbackKey string
	notifier    notification.Notifier
}

// NewService wires the workflow. The pricing value is treated as immutable;
// callbackKey is the gateway shared secret used to verify checkout callbacks.
func NewService(l ledger.Ledger, store Store, gw gateway.Gateway, pricing Pricing, callbackKey string, notifier notification.Notifier) *Service {
	if gw == nil {
		gw = gateway.Static{}
	}
	return &Service{
		ledger:      l,
		store:       store,
		gateway:     gw,
		pricing:     pricing,
		callbackKey: callbackKey,
		notifier:    notifier,
	}
}

// Balance returns the user's current credit balance.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

// PurchaseOrder is returned to the caller for gateway checkout.
type PurchaseOrder struct {
	OrderRef string
	Amount   float64
	Currency string
}

// InitiatePurchase validates the plan against the price table, opens a
// gateway order for the exact price and records a pending transaction.
// The caller-echoed credits and amount must match the table exactly.
func (s *Service) InitiatePurchase(ctx context.Context, userID, planName string, credits int64, amount float64) (PurchaseOrder, error) {
	plan, ok := s.pricing.Plan(planName)
	if !ok {
		return PurchaseOrder{}, ErrInvalidPlan
	}
	if credits != plan.Credits || amount != plan.Price {
		return PurchaseOrder{}, ErrInvalidPlan
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderInput{
		Amount:   plan.Price,
		Currency: s.pricing.Currency,
		Receipt:  fmt.Sprintf("vcreds_%s_%d", userID, time.Now().UnixMilli()),
		Notes: map[string]string{
			"user_id": userID,
			"plan":    planName,
			"credits": strconv.FormatInt(plan.Credits, 10),
			"type":    KindPurchase,
		},
	})
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("create gateway order: %w", err)
	}

	t := Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      KindPurchase,
		Amount:    plan.Price,
		Credits:   plan.Credits,
		OrderRef:  order.Reference,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePurchase(ctx, t); err != nil {
		return PurchaseOrder{}, fmt.Errorf("persist purchase: %w", err)
	}

	return PurchaseOrder{OrderRef: order.Reference, Amount: plan.Price, Currency: s.pricing.Currency}, nil
}

// VerifyResult reports a purchase verification outcome.
type VerifyResult struct {
	CreditsAdded     int64
	Balance          int64
	AlreadyCompleted bool
}

// VerifyPurchase recomputes the callback HMAC and, on a match, credits the
// plan amount and completes the transaction at most once. Re-verifying an
// already-completed order is a no-op success so gateway callback retries are
// tolerated. A signature mismatch changes nothing and may be retried.
func (s *Service) VerifyPurchase(ctx context.Context, userID, orderRef, paymentRef, signature string) (VerifyResult, error) {
	if !gateway.VerifySignature(orderRef, paymentRef, signature, s.callbackKey) {
		return VerifyResult{}, ErrSignatureInvalid
	}

	res, err := s.store.CompletePurchase(ctx, orderRef, userID, paymentRef)
	if err != nil {
		return VerifyResult{}, err
	}

	if !res.AlreadyCompleted {
		s.notify(ctx, notification.KindPurchaseCompleted, userID,
			fmt.Sprintf("%d VCreds added to your account", res.Credits))
	}

	return VerifyResult{CreditsAdded: res.Credits, Balance: res.NewBalance, AlreadyCompleted: res.AlreadyCompleted}, nil
}

// SellResult is returned to the caller after a sell request is accepted.
type SellResult struct {
	TransactionID string
	CreditsSold   int64
	NetAmount     float64
	ProcessingFee float64
	Balance       int64
	ETA           string
}

// InitiateSell validates the request, then debits the credits and records the
// pending sell in one atomic unit. The debit happens at request time; a later
// payout rejection triggers a compensating credit in ProcessPayout.
func (s *Service) InitiateSell(ctx context.Context, userID string, credits int64, details BankDetails) (SellResult, error) {
	if credits < s.pricing.MinSellCredits {
		return SellResult{}, fmt.Errorf("%w: minimum is %d VCreds", ErrBelowMinimumSell, s.pricing.MinSellCredits)
	}
	if err := ValidateBankDetails(details); err != nil {
		return SellResult{}, err
	}

	gross, fee, net := s.pricing.SellQuote(credits)
	details.UpdatedAt = time.Now().UTC()

	t := Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Kind:          KindSell,
		Amount:        gross,
		Credits:       credits,
		NetAmount:     net,
		ProcessingFee: fee,
		BankDetails:   &details,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	stored, balance, err := s.store.CreateSell(ctx, t)
	if err != nil {
		return SellResult{}, err
	}

	return SellResult{
		TransactionID: stored.ID,
		CreditsSold:   credits,
		NetAmount:     net,
		ProcessingFee: fee,
		Balance:       balance,
		ETA:           s.pricing.PayoutETA,
	}, nil
}

// PayoutResult reports an accepted payout.
type PayoutResult struct {
	TransactionID string
	PayoutRef     string
}

// ProcessPayout pushes the net amount of a pending sell to the stored bank
// account. Administrative operation: route access is gated separately. A
// gateway rejection flips the transaction to failed and credits the debited
// amount back in one atomic unit before the error is returned.
func (s *Service) ProcessPayout(ctx context.Context, txID string) (PayoutResult, error) {
	t, err := s.store.GetSellForPayout(ctx, txID)
	if err != nil {
		return PayoutResult{}, err
	}
	if t.BankDetails == nil {
		return PayoutResult{}, ErrInvalidBankDetails
	}

	payout, err := s.gateway.CreatePayout(ctx, gateway.CreatePayoutInput{
		Account: gateway.BankAccount{
			AccountHolder: t.BankDetails.AccountHolder,
			AccountNumber: t.BankDetails.AccountNumber,
			IFSCCode:      t.BankDetails.IFSCCode,
			BankName:      t.BankDetails.BankName,
			BranchName:    t.BankDetails.BranchName,
		},
		Amount:   t.NetAmount,
		Currency: s.pricing.Currency,
		Purpose:  "payout",
		Notes: map[string]string{
			"transaction_id": t.ID,
			"user_id":        t.UserID,
		},
	})
	if err != nil {
		if _, refundErr := s.store.FailSellWithRefund(ctx, t.ID, refundDescription(t.Credits)); refundErr != nil {
			return PayoutResult{}, fmt.Errorf("payout rejected (%v) and refund failed: %w", err, refundErr)
		}
		s.notify(ctx, notification.KindPayoutFailed, t.UserID,
			fmt.Sprintf("Payout for transaction %s was rejected; %d VCreds refunded", t.ID, t.Credits))
		return PayoutResult{}, fmt.Errorf("create gateway payout: %w", err)
	}

	completed, err := s.store.CompleteSellPayout(ctx, t.ID, payout.Reference)
	if err != nil {
		return PayoutResult{}, err
	}

	s.notify(ctx, notification.KindPayoutInitiated, completed.UserID,
		fmt.Sprintf("Payout of %.2f %s initiated", completed.NetAmount, s.pricing.Currency))

	return PayoutResult{TransactionID: completed.ID, PayoutRef: payout.Reference}, nil
}

// Pagination describes a history page.
type Pagination struct {
	CurrentPage int
	PerPage     int
	Total       int
	TotalPages  int
}

// HistoryPage is one page of a user's transactions.
type HistoryPage struct {
	Transactions []Transaction
	Pagination   Pagination
}

// ListTransactions returns the user's history newest-first. Page and limit
// are clamped server-side; kind filters to purchases or sells when set.
func (s *Service) ListTransactions(ctx context.Context, userID, kind string, page, limit int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if kind != KindPurchase && kind != KindSell {
		kind = ""
	}

	offset := (page - 1) * limit
	transactions, total, err := s.store.List(ctx, userID, kind, limit, offset)
	if err != nil {
		return HistoryPage{}, err
	}

	return HistoryPage{
		Transactions: transactions,
		Pagination: Pagination{
			CurrentPage: page,
			PerPage:     limit,
			Total:       total,
			TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

// BankDetails returns the stored payout destination in masked form.
func (s *Service) BankDetails(ctx context.Context, userID string) (MaskedBankDetails, error) {
	details, err := s.store.BankDetails(ctx, userID)
	if err != nil {
		return MaskedBankDetails{}, err
	}
	return details.Masked(), nil
}

// SaveBankDetails validates and stores the payout destination wholesale.
func (s *Service) SaveBankDetails(ctx context.Context, userID string, details BankDetails) error {
	if err := ValidateBankDetails(details); err != nil {
		return err
	}
	details.UpdatedAt = time.Now().UTC()
	return s.store.UpsertBankDetails(ctx, userID, details)
}

// ValidateBankDetails enforces the payout destination format: required
// holder, number and bank name, and an IFSC-shaped bank code.
func ValidateBankDetails(d BankDetails) error {
	if strings.TrimSpace(d.AccountHolder) == "" ||
		strings.TrimSpace(d.AccountNumber) == "" ||
		strings.TrimSpace(d.BankName) == "" {
		return ErrInvalidBankDetails
	}
	if !ifscPattern.MatchString(d.IFSCCode) {
		return fmt.Errorf("%w: bad bank code format", ErrInvalidBankDetails)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, kind, userID, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body})
}

func creditDescription(credits int64) string {
	return fmt.Sprintf("Purchased %d VCreds", credits)
}

func debitDescription(credits int64) string {
	return fmt.Sprintf("Sold %d VCreds", credits)
}

func refundDescription(credits int64) string {
	return fmt.Sprintf("Refund for failed payout of %d VCreds", credits)
}

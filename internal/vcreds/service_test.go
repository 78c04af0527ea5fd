package vcreds

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillvault/vcreds-api/internal/gateway"
	"github.com/skillvault/vcreds-api/internal/ledger"
)

const testCallbackKey = "test-callback-key"

func newTestSetup(t *testing.T) (*Service, ledger.Ledger, string) {
	t.Helper()
	l := ledger.NewInMemory()
	userID := "11111111-1111-4111-8111-111111111111"
	ledger.SeedAccount(l, userID, 0)
	svc := NewService(l, NewMemoryStore(l), gateway.Static{}, DefaultPricing(), testCallbackKey, nil)
	return svc, l, userID
}

func validBankDetails() BankDetails {
	return BankDetails{
		AccountHolder: "Asha Rao",
		AccountNumber: "123456789012",
		IFSCCode:      "HDFC0001234",
		BankName:      "HDFC Bank",
		BranchName:    "Koramangala",
	}
}

// purchase walks the full order-then-verify flow for one starter plan.
func purchase(t *testing.T, svc *Service, userID string) VerifyResult {
	t.Helper()
	ctx := context.Background()

	order, err := svc.InitiatePurchase(ctx, userID, "starter", 500, 500)
	require.NoError(t, err)

	sig := gateway.Signature(order.OrderRef, "pay_test_1", testCallbackKey)
	res, err := svc.VerifyPurchase(ctx, userID, order.OrderRef, "pay_test_1", sig)
	require.NoError(t, err)
	return res
}

func TestPurchaseFlowCreditsOnce(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ctx := context.Background()

	order, err := svc.InitiatePurchase(ctx, userID, "starter", 500, 500)
	require.NoError(t, err)
	require.NotEmpty(t, order.OrderRef)
	require.Equal(t, 500.0, order.Amount)
	require.Equal(t, "INR", order.Currency)

	// Pending order has not credited anything yet.
	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, balance)

	sig := gateway.Signature(order.OrderRef, "pay_abc", testCallbackKey)
	res, err := svc.VerifyPurchase(ctx, userID, order.OrderRef, "pay_abc", sig)
	require.NoError(t, err)
	require.False(t, res.AlreadyCompleted)
	require.Equal(t, int64(500), res.CreditsAdded)
	require.Equal(t, int64(500), res.Balance)

	// A callback retry must not credit again.
	res2, err := svc.VerifyPurchase(ctx, userID, order.OrderRef, "pay_abc", sig)
	require.NoError(t, err)
	require.True(t, res2.AlreadyCompleted)
	require.Equal(t, int64(500), res2.Balance)

	balance, err = l.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(500), balance)
}

func TestVerifyPurchaseRejectsBadSignature(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ctx := context.Background()

	order, err := svc.InitiatePurchase(ctx, userID, "starter", 500, 500)
	require.NoError(t, err)

	_, err = svc.VerifyPurchase(ctx, userID, order.OrderRef, "pay_abc", "deadbeef")
	require.ErrorIs(t, err, ErrSignatureInvalid)

	// Nothing changed; a correctly signed retry still succeeds.
	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, balance)

	sig := gateway.Signature(order.OrderRef, "pay_abc", testCallbackKey)
	res, err := svc.VerifyPurchase(ctx, userID, order.OrderRef, "pay_abc", sig)
	require.NoError(t, err)
	require.Equal(t, int64(500), res.Balance)
}

func TestVerifyPurchaseUnknownOrder(t *testing.T) {
	svc, _, userID := newTestSetup(t)

	sig := gateway.Signature("order_missing", "pay_abc", testCallbackKey)
	_, err := svc.VerifyPurchase(context.Background(), userID, "order_missing", "pay_abc", sig)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestInitiatePurchaseRejectsMismatchedPlan(t *testing.T) {
	svc, _, userID := newTestSetup(t)
	ctx := context.Background()

	_, err := svc.InitiatePurchase(ctx, userID, "gold", 500, 500)
	require.ErrorIs(t, err, ErrInvalidPlan)

	// Tampered credits or price must not pass the table check.
	_, err = svc.InitiatePurchase(ctx, userID, "starter", 9999, 500)
	require.ErrorIs(t, err, ErrInvalidPlan)
	_, err = svc.InitiatePurchase(ctx, userID, "starter", 500, 1)
	require.ErrorIs(t, err, ErrInvalidPlan)
}

func TestSellDebitsImmediately(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ctx := context.Background()
	ledger.SeedAccount(l, userID, 100)

	res, err := svc.InitiateSell(ctx, userID, 100, validBankDetails())
	require.NoError(t, err)
	require.Equal(t, int64(100), res.CreditsSold)
	require.InDelta(t, 2.375, res.ProcessingFee, 1e-9)
	require.InDelta(t, 92.625, res.NetAmount, 1e-9)
	require.Zero(t, res.Balance)

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestSellBelowMinimumRejected(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ctx := context.Background()
	ledger.SeedAccount(l, userID, 100)

	_, err := svc.InitiateSell(ctx, userID, 50, validBankDetails())
	require.ErrorIs(t, err, ErrBelowMinimumSell)

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}

func TestSellInsufficientBalance(t *testing.T) {
	svc, _, userID := newTestSetup(t)

	_, err := svc.InitiateSell(context.Background(), userID, 100, validBankDetails())
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestSellRejectsBadBankDetails(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ledger.SeedAccount(l, userID, 200)

	details := validBankDetails()
	details.IFSCCode = "not-a-code"
	_, err := svc.InitiateSell(context.Background(), userID, 100, details)
	require.ErrorIs(t, err, ErrInvalidBankDetails)
}

func TestProcessPayoutCompletesSell(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ctx := context.Background()
	ledger.SeedAccount(l, userID, 100)

	sell, err := svc.InitiateSell(ctx, userID, 100, validBankDetails())
	require.NoError(t, err)

	payout, err := svc.ProcessPayout(ctx, sell.TransactionID)
	require.NoError(t, err)
	require.Equal(t, sell.TransactionID, payout.TransactionID)
	require.NotEmpty(t, payout.PayoutRef)

	// Completed sells cannot be paid out twice.
	_, err = svc.ProcessPayout(ctx, sell.TransactionID)
	require.ErrorIs(t, err, ErrAlreadyProcessed)
}

// rejectingGateway fails every payout, for exercising the compensation path.
type rejectingGateway struct{}

func (rejectingGateway) CreateOrder(_ context.Context, in gateway.CreateOrderInput) (gateway.Order, error) {
	return gateway.Static{}.CreateOrder(context.Background(), in)
}

func (rejectingGateway) CreatePayout(context.Context, gateway.CreatePayoutInput) (gateway.Payout, error) {
	return gateway.Payout{}, errors.New("beneficiary account blocked")
}

func TestProcessPayoutRefundsOnGatewayRejection(t *testing.T) {
	l := ledger.NewInMemory()
	userID := "22222222-2222-4222-8222-222222222222"
	ledger.SeedAccount(l, userID, 150)
	svc := NewService(l, NewMemoryStore(l), rejectingGateway{}, DefaultPricing(), testCallbackKey, nil)
	ctx := context.Background()

	sell, err := svc.InitiateSell(ctx, userID, 150, validBankDetails())
	require.NoError(t, err)
	require.Zero(t, sell.Balance)

	_, err = svc.ProcessPayout(ctx, sell.TransactionID)
	require.Error(t, err)

	// The debited credits came back and the sell is terminal.
	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(150), balance)

	_, err = svc.ProcessPayout(ctx, sell.TransactionID)
	require.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestProcessPayoutUnknownTransaction(t *testing.T) {
	svc, _, _ := newTestSetup(t)
	_, err := svc.ProcessPayout(context.Background(), "33333333-3333-4333-8333-333333333333")
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestListTransactionsPaginates(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ctx := context.Background()
	ledger.SeedAccount(l, userID, 0)

	for i := 0; i < 25; i++ {
		order, err := svc.InitiatePurchase(ctx, userID, "starter", 500, 500)
		require.NoError(t, err)
		ref := fmt.Sprintf("pay_%d", i)
		sig := gateway.Signature(order.OrderRef, ref, testCallbackKey)
		_, err = svc.VerifyPurchase(ctx, userID, order.OrderRef, ref, sig)
		require.NoError(t, err)
	}

	page1, err := svc.ListTransactions(ctx, userID, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, page1.Transactions, 20)
	require.Equal(t, 25, page1.Pagination.Total)
	require.Equal(t, 2, page1.Pagination.TotalPages)

	page2, err := svc.ListTransactions(ctx, userID, "", 2, 20)
	require.NoError(t, err)
	require.Len(t, page2.Transactions, 5)
	require.Equal(t, 2, page2.Pagination.CurrentPage)
}

func TestListTransactionsFiltersByKind(t *testing.T) {
	svc, l, userID := newTestSetup(t)
	ctx := context.Background()

	purchase(t, svc, userID)
	ledger.SeedAccount(l, userID, 500)
	_, err := svc.InitiateSell(ctx, userID, 100, validBankDetails())
	require.NoError(t, err)

	sells, err := svc.ListTransactions(ctx, userID, KindSell, 1, 20)
	require.NoError(t, err)
	require.Len(t, sells.Transactions, 1)
	require.Equal(t, KindSell, sells.Transactions[0].Kind)

	purchases, err := svc.ListTransactions(ctx, userID, KindPurchase, 1, 20)
	require.NoError(t, err)
	require.Len(t, purchases.Transactions, 1)

	// An unknown filter falls back to the full history.
	all, err := svc.ListTransactions(ctx, userID, "bogus", 1, 20)
	require.NoError(t, err)
	require.Len(t, all.Transactions, 2)
}

func TestListTransactionsClampsPaging(t *testing.T) {
	svc, _, userID := newTestSetup(t)

	page, err := svc.ListTransactions(context.Background(), userID, "", -3, 100000)
	require.NoError(t, err)
	require.Equal(t, 1, page.Pagination.CurrentPage)
	require.Equal(t, maxPageSize, page.Pagination.PerPage)
}

func TestBankDetailsRoundTripMasked(t *testing.T) {
	svc, _, userID := newTestSetup(t)
	ctx := context.Background()

	_, err := svc.BankDetails(ctx, userID)
	require.ErrorIs(t, err, ErrBankDetailsNotSet)

	require.NoError(t, svc.SaveBankDetails(ctx, userID, validBankDetails()))

	masked, err := svc.BankDetails(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "XXXX9012", masked.AccountNumberMasked)
	require.Equal(t, "Asha Rao", masked.AccountHolder)
	require.Equal(t, "HDFC0001234", masked.IFSCCode)
}

func TestSaveBankDetailsValidates(t *testing.T) {
	svc, _, userID := newTestSetup(t)

	details := validBankDetails()
	details.AccountHolder = "  "
	err := svc.SaveBankDetails(context.Background(), userID, details)
	require.ErrorIs(t, err, ErrInvalidBankDetails)
}

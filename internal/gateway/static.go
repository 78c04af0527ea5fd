package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Static simulates an always-approving payment provider. Used in development
// mode and in tests where no hosted gateway is reachable.
type Static struct{}

// CreateOrder returns a synthetic order reference.
func (Static) CreateOrder(_ context.Context, input CreateOrderInput) (Order, error) {
	return Order{
		Reference: "order_" + uuid.NewString(),
		Amount:    input.Amount,
		Currency:  input.Currency,
	}, nil
}

// CreatePayout approves the transfer with a synthetic payout reference.
func (Static) CreatePayout(_ context.Context, _ CreatePayoutInput) (Payout, error) {
	return Payout{
		Reference: fmt.Sprintf("pout_%d", time.Now().UnixMilli()),
		Status:    "processing",
	}, nil
}

// Package gateway connects to the hosted payment provider used for VCreds
// purchases (checkout orders) and sell payouts (bank transfers).
package gateway

import "context"

// BankAccount identifies a payout destination.
type BankAccount struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	BankName      string `json:"bank_name"`
	BranchName    string `json:"branch_name,omitempty"`
}

// CreateOrderInput captures the data required to open a checkout order.
// Amount is in currency units (rupees); the wire format uses paise.
type CreateOrderInput struct {
	Amount   float64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the provider's record of a checkout order.
type Order struct {
	Reference string
	Amount    float64
	Currency  string
}

// CreatePayoutInput captures the data required to push funds to a bank account.
type CreatePayoutInput struct {
	Account  BankAccount
	Amount   float64
	Currency string
	Purpose  string
	Notes    map[string]string
}

// Payout is the provider's record of an outbound transfer.
type Payout struct {
	Reference string
	Status    string
}

// Gateway represents a connector to the external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error)
	CreatePayout(ctx context.Context, input CreatePayoutInput) (Payout, error)
}

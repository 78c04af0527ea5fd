// Package vcreds implements the virtual-credits purchase and sell workflows:
// checkout orders against the payment gateway, callback verification,
// sell-side payouts and the transaction history.
package vcreds

import "time"

const (
	// KindPurchase marks a credits purchase funded through gateway checkout.
	KindPurchase = "purchase"
	// KindSell marks a credits redemption paid out to a bank account.
	KindSell = "sell"
)

const (
	// StatusPending is the initial state of every transaction.
	StatusPending = "pending"
	// StatusCompleted is terminal: the purchase was credited or the payout accepted.
	StatusCompleted = "completed"
	// StatusFailed is terminal: the payout was rejected and the debit refunded.
	StatusFailed = "failed"
)

// Transaction represents one purchase or sell attempt. Pending transactions
// transition to exactly one terminal state; terminal states are immutable.
type Transaction struct {
	ID            string
	UserID        string
	Kind          string
	Amount        float64 // gross amount in currency units
	Credits       int64
	NetAmount     float64 // sell only
	ProcessingFee float64 // sell only
	OrderRef      string
	PaymentRef    string
	PayoutRef     string
	BankDetails   *BankDetails // sell only, snapshot at request time
	Status        string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// BankDetails is a payout destination owned by one user.
type BankDetails struct {
	AccountHolder string    `json:"account_holder"`
	AccountNumber string    `json:"account_number"`
	IFSCCode      string    `json:"ifsc_code"`
	BankName      string    `json:"bank_name"`
	BranchName    string    `json:"branch_name,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MaskedBankDetails is the only form in which bank details leave the service.
// The full account number is never returned by any read path.
type MaskedBankDetails struct {
	AccountHolder       string    `json:"account_holder"`
	AccountNumberMasked string    `json:"account_number_masked"`
	IFSCCode            string    `json:"ifsc_code"`
	BankName            string    `json:"bank_name"`
	BranchName          string    `json:"branch_name,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Masked returns the read-path representation with the account number reduced
// to a 4-character suffix.
func (b BankDetails) Masked() MaskedBankDetails {
	suffix := b.AccountNumber
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return MaskedBankDetails{
		AccountHolder:       b.AccountHolder,
		AccountNumberMasked: "XXXX" + suffix,
		IFSCCode:            b.IFSCCode,
		BankName:            b.BankName,
		BranchName:          b.BranchName,
		UpdatedAt:           b.UpdatedAt,
	}
}

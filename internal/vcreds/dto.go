package vcreds

import "time"

// CreateOrderRequest opens a checkout order. The client echoes the plan's
// credits and price; both are cross-checked against the price table.
type CreateOrderRequest struct {
	Plan    string  `json:"plan" validate:"required"`
	Credits int64   `json:"credits" validate:"required,gt=0"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
}

// CreateOrderResponse is handed back for gateway checkout.
type CreateOrderResponse struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// VerifyPurchaseRequest carries the gateway's signed callback payload.
type VerifyPurchaseRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// VerifyPurchaseResponse reports the credited amount.
type VerifyPurchaseResponse struct {
	Success      bool   `json:"success"`
	CreditsAdded int64  `json:"credits_added"`
	Balance      int64  `json:"balance"`
	Message      string `json:"message"`
}

// BankDetailsRequest is the payout destination as supplied by the user.
type BankDetailsRequest struct {
	AccountHolder string `json:"account_holder" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,min=6,max=18"`
	IFSCCode      string `json:"ifsc_code" validate:"required,ifsc"`
	BankName      string `json:"bank_name" validate:"required"`
	BranchName    string `json:"branch_name"`
}

// SellRequest redeems credits for a bank transfer.
type SellRequest struct {
	Amount      int64              `json:"amount" validate:"required,gt=0"`
	BankDetails BankDetailsRequest `json:"bank_details" validate:"required"`
}

// SellResponse reports the accepted sell request.
type SellResponse struct {
	Success                 bool    `json:"success"`
	TransactionID           string  `json:"transaction_id"`
	CreditsSold             int64   `json:"credits_sold"`
	NetAmount               float64 `json:"net_amount"`
	ProcessingFee           float64 `json:"processing_fee"`
	Balance                 int64   `json:"balance"`
	EstimatedProcessingTime string  `json:"estimated_processing_time"`
}

// PayoutResponse reports an initiated payout.
type PayoutResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	PayoutID      string `json:"payout_id"`
}

// TransactionResponse is the history representation of one transaction.
type TransactionResponse struct {
	ID            string     `json:"id"`
	Kind          string     `json:"type"`
	Amount        float64    `json:"amount"`
	Credits       int64      `json:"credits"`
	NetAmount     float64    `json:"net_amount,omitempty"`
	ProcessingFee float64    `json:"processing_fee,omitempty"`
	Status        string     `json:"status"`
	OrderRef      string     `json:"order_ref,omitempty"`
	PaymentRef    string     `json:"payment_ref,omitempty"`
	PayoutRef     string     `json:"payout_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// PaginationResponse is page metadata for the history listing.
type PaginationResponse struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
}

// HistoryResponse is one page of transactions plus metadata.
type HistoryResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   PaginationResponse    `json:"pagination"`
}

func toTransactionResponse(t Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Kind:          t.Kind,
		Amount:        t.Amount,
		Credits:       t.Credits,
		NetAmount:     t.NetAmount,
		ProcessingFee: t.ProcessingFee,
		Status:        t.Status,
		OrderRef:      t.OrderRef,
		PaymentRef:    t.PaymentRef,
		PayoutRef:     t.PayoutRef,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}
}

func (r BankDetailsRequest) toModel() BankDetails {
	return BankDetails{
		AccountHolder: r.AccountHolder,
		AccountNumber: r.AccountNumber,
		IFSCCode:      r.IFSCCode,
		BankName:      r.BankName,
		BranchName:    r.BranchName,
	}
}

package vcreds

import "errors"

var (
	// ErrInvalidPlan indicates an unknown plan name or a credits/price value
	// that does not match the plan table.
	ErrInvalidPlan = errors.New("invalid plan or amount")

	// ErrSignatureInvalid indicates the callback signature did not match the
	// expected HMAC. No state is changed; verification may be retried.
	ErrSignatureInvalid = errors.New("invalid payment signature")

	// ErrTransactionNotFound indicates no matching transaction exists for the
	// caller.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyProcessed indicates the transaction already reached a terminal
	// state and cannot be acted on again.
	ErrAlreadyProcessed = errors.New("transaction already processed")

	// ErrBelowMinimumSell indicates a sell request under the minimum threshold.
	ErrBelowMinimumSell = errors.New("sell amount below minimum")

	// ErrInvalidBankDetails indicates malformed or incomplete payout details.
	ErrInvalidBankDetails = errors.New("invalid bank details")

	// ErrBankDetailsNotSet indicates the user has no stored payout destination.
	ErrBankDetailsNotSet = errors.New("bank details not set")
)

package models

// TransactionStatus is what the payment provider reports for a reference.
type TransactionStatus struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Channel   string `json:"channel,omitempty"`
	PaidAt    string `json:"paidAt,omitempty"`
}

const ProviderStatusSuccess = "success"

func (s TransactionStatus) Successful() bool {
	return s.Status == ProviderStatusSuccess
}

// InitializeTransaction is the request to open a payment for a booking.
type InitializeTransaction struct {
	Reference   string
	Email       string
	AmountMinor int64
	Currency    string
	CallbackURL string
	Metadata    map[string]any
}

// ReconcileResult reports the outcome of applying a payment confirmation.
type ReconcileResult struct {
	Booking        Booking `json:"booking"`
	AlreadyApplied bool    `json:"alreadyApplied"`
}

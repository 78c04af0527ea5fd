package vcreds

// Plan pairs a credit grant with its checkout price.
type Plan struct {
	Credits int64
	Price   float64
}

// Pricing is the immutable rate configuration injected into the service at
// construction. Plans and rates are never mutated after Load.
type Pricing struct {
	Plans          map[string]Plan
	ConversionRate float64 // credits -> currency on sell
	FeeRate        float64 // processing fee taken from gross
	MinSellCredits int64
	Currency       string
	PayoutETA      string
}

// DefaultPricing returns the production price table and rates.
func DefaultPricing() Pricing {
	return Pricing{
		Plans: map[string]Plan{
			"starter":      {Credits: 500, Price: 500},
			"professional": {Credits: 1000, Price: 950},
			"business":     {Credits: 2500, Price: 2250},
			"enterprise":   {Credits: 5000, Price: 4250},
		},
		ConversionRate: 0.95,
		FeeRate:        0.025,
		MinSellCredits: 100,
		Currency:       "INR",
		PayoutETA:      "3-5 business days",
	}
}

// Plan looks up a plan by name.
func (p Pricing) Plan(name string) (Plan, bool) {
	plan, ok := p.Plans[name]
	return plan, ok
}

// SellQuote converts a credit amount into gross, fee and net currency amounts.
func (p Pricing) SellQuote(credits int64) (gross, fee, net float64) {
	gross = float64(credits) * p.ConversionRate
	fee = gross * p.FeeRate
	net = gross - fee
	return gross, fee, net
}

package vcreds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPricingPlans(t *testing.T) {
	p := DefaultPricing()

	for name, want := range map[string]Plan{
		"starter":      {Credits: 500, Price: 500},
		"professional": {Credits: 1000, Price: 950},
		"business":     {Credits: 2500, Price: 2250},
		"enterprise":   {Credits: 5000, Price: 4250},
	} {
		plan, ok := p.Plan(name)
		require.True(t, ok, name)
		require.Equal(t, want, plan, name)
	}

	_, ok := p.Plan("platinum")
	require.False(t, ok)
}

func TestSellQuote(t *testing.T) {
	p := DefaultPricing()

	gross, fee, net := p.SellQuote(100)
	require.InDelta(t, 95.0, gross, 1e-9)
	require.InDelta(t, 2.375, fee, 1e-9)
	require.InDelta(t, 92.625, net, 1e-9)

	gross, fee, net = p.SellQuote(1000)
	require.InDelta(t, 950.0, gross, 1e-9)
	require.InDelta(t, 23.75, fee, 1e-9)
	require.InDelta(t, net, gross-fee, 1e-9)
}

func TestMaskedBankDetails(t *testing.T) {
	d := BankDetails{
		AccountHolder: "Asha Rao",
		AccountNumber: "123456789012",
		IFSCCode:      "HDFC0001234",
		BankName:      "HDFC Bank",
	}

	m := d.Masked()
	require.Equal(t, "XXXX9012", m.AccountNumberMasked)
	require.Equal(t, d.AccountHolder, m.AccountHolder)
	require.Equal(t, d.BankName, m.BankName)
}

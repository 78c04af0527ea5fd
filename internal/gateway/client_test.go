package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key_id", user)
		require.Equal(t, "key_secret", pass)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, float64(50000), payload["amount"]) // 500 rupees in paise
		require.Equal(t, "INR", payload["currency"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": "order_123", "amount": 50000, "currency": "INR", "status": "created",
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{KeyID: "key_id", KeySecret: "key_secret", BaseURL: srv.URL})
	require.NoError(t, err)

	order, err := client.CreateOrder(context.Background(), CreateOrderInput{
		Amount:   500,
		Currency: "INR",
		Receipt:  "vcreds_u1",
	})
	require.NoError(t, err)
	require.Equal(t, "order_123", order.Reference)
	require.Equal(t, float64(500), order.Amount)
	require.Equal(t, "INR", order.Currency)
}

func TestClientCreatePayoutRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"description":"account blocked"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.CreatePayout(context.Background(), CreatePayoutInput{
		Account: BankAccount{AccountHolder: "A", AccountNumber: "1234567890", IFSCCode: "HDFC0001234"},
		Amount:  92.63, Currency: "INR",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{KeySecret: "s"})
	require.Error(t, err)
	_, err = NewClient(Config{KeyID: "k"})
	require.Error(t, err)
}

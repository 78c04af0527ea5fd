package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signature computes the hex HMAC-SHA256 the provider attaches to checkout
// callbacks: the key is the shared secret, the message is
// "<orderRef>|<paymentRef>".
func Signature(orderRef, paymentRef, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the supplied signature matches the expected
// one. Comparison is constant-time.
func VerifySignature(orderRef, paymentRef, signature, secret string) bool {
	expected := Signature(orderRef, paymentRef, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

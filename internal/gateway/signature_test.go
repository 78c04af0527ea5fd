package gateway

import "testing"

func TestVerifySignature(t *testing.T) {
	const secret = "test-secret"
	sig := Signature("order_abc", "pay_xyz", secret)

	if !VerifySignature("order_abc", "pay_xyz", sig, secret) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature("order_abc", "pay_other", sig, secret) {
		t.Fatal("signature verified against wrong payment ref")
	}
	if VerifySignature("order_abc", "pay_xyz", sig, "other-secret") {
		t.Fatal("signature verified against wrong secret")
	}
	if VerifySignature("order_abc", "pay_xyz", "", secret) {
		t.Fatal("empty signature verified")
	}
}

func TestSignatureIsHexSHA256(t *testing.T) {
	sig := Signature("a", "b", "k")
	if len(sig) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig))
	}
	for _, r := range sig {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("unexpected character %q in signature", r)
		}
	}
}

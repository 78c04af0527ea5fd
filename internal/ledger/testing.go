package ledger

// SeedAccount is a test helper that creates an account with the given balance
// when using the in-memory ledger. No audit entry is written, mirroring a
// pre-existing balance.
func SeedAccount(l Ledger, userID string, balance int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[userID] = balance
	}
}

package domain

import "context"

// Balances holds the connected account's cached balances: the chain's native
// coin (BNB) and the BPM market token.
type Balances struct {
	BNB float64
	BPM float64
}

// WalletBridge is the capability surface the client consumes from the wallet
// environment. The bridge signs nothing on the client's behalf; it only
// exposes account access and balance queries.
type WalletBridge interface {
	// RequestAccounts asks the bridge for the user's accounts. The call is
	// user-gated and blocks until the user approves or rejects; rejection is
	// reported as an error wrapping ErrWalletRejected.
	RequestAccounts(ctx context.Context) ([]string, error)

	// Balance returns the native-coin balance of the given address.
	Balance(ctx context.Context, address string) (float64, error)

	// TokenBalance returns the BPM token balance of the given address.
	TokenBalance(ctx context.Context, address string) (float64, error)

	// OnAccountsChanged registers fn to be called whenever the bridge's
	// account set changes. The returned func cancels the registration.
	OnAccountsChanged(fn func(accounts []string)) (cancel func())
}

// TruncateAddress shortens a 0x address for display: first 6 and last 4
// characters. Shorter strings are returned unchanged.
func TruncateAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

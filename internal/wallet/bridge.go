package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// erc20BalanceOfSelector is the 4-byte selector of balanceOf(address).
var erc20BalanceOfSelector = ethcrypto.Keccak256([]byte("balanceOf(address)"))[:4]

// Authorizer gates account exposure. It is invoked with the resolved address
// on every RequestAccounts call and blocks until the user approves or
// rejects, mirroring a browser wallet's approval prompt. A nil Authorizer
// approves automatically.
type Authorizer func(address string) bool

// Config holds the parameters for a Bridge.
type Config struct {
	// RpcURL is the chain node endpoint, e.g. a BSC testnet RPC.
	RpcURL string
	// TokenAddress is the BPM ERC-20 contract queried by TokenBalance.
	TokenAddress string
	// Key is the private key source used to resolve the account.
	Key KeyConfig
	// Authorize gates RequestAccounts; nil auto-approves.
	Authorize Authorizer
}

// Bridge implements domain.WalletBridge over an EVM JSON-RPC node. The
// account is derived from the configured key; balances come from the node.
type Bridge struct {
	eth       *ethclient.Client
	token     common.Address
	keyCfg    KeyConfig
	authorize Authorizer
	logger    *slog.Logger

	mu         sync.Mutex
	account    common.Address
	hasAccount bool
	listeners  map[int]func([]string)
	nextListen int
}

// New dials the node and returns a Bridge. The key is not touched until
// RequestAccounts is called, so a client with a reachable node but no key
// still constructs and later reports the rejection to the user.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Bridge, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RpcURL)
	if err != nil {
		return nil, fmt.Errorf("wallet: dial %s: %w", cfg.RpcURL, err)
	}

	return &Bridge{
		eth:       eth,
		token:     common.HexToAddress(cfg.TokenAddress),
		keyCfg:    cfg.Key,
		authorize: cfg.Authorize,
		logger:    logger.With(slog.String("component", "wallet")),
		listeners: make(map[int]func([]string)),
	}, nil
}

// RequestAccounts resolves the configured key to an address, gated by the
// authorizer. A rejection wraps domain.ErrWalletRejected. Listeners are
// notified when the resolved account differs from the previous one.
func (b *Bridge) RequestAccounts(ctx context.Context) ([]string, error) {
	keyHex, err := LoadKey(b.keyCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWalletRejected, err)
	}

	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %v", domain.ErrWalletRejected, err)
	}
	addr := ethcrypto.PubkeyToAddress(pk.PublicKey)

	if b.authorize != nil && !b.authorize(addr.Hex()) {
		return nil, fmt.Errorf("%w: user denied account access", domain.ErrWalletRejected)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	b.mu.Lock()
	changed := !b.hasAccount || b.account != addr
	b.account = addr
	b.hasAccount = true
	var fns []func([]string)
	if changed {
		for _, fn := range b.listeners {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	accounts := []string{addr.Hex()}
	for _, fn := range fns {
		fn(accounts)
	}

	b.logger.Debug("accounts resolved", slog.String("address", addr.Hex()))
	return accounts, nil
}

// Balance returns the native BNB balance of the given address.
func (b *Bridge) Balance(ctx context.Context, address string) (float64, error) {
	wei, err := b.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, fmt.Errorf("wallet: balance of %s: %w", address, err)
	}
	return weiToUnit(wei), nil
}

// TokenBalance returns the BPM token balance of the given address via an
// eth_call to balanceOf on the configured token contract. The token uses the
// standard 18 decimals.
func (b *Bridge) TokenBalance(ctx context.Context, address string) (float64, error) {
	holder := common.HexToAddress(address)

	data := make([]byte, 0, 36)
	data = append(data, erc20BalanceOfSelector...)
	data = append(data, common.LeftPadBytes(holder.Bytes(), 32)...)

	out, err := b.eth.CallContract(ctx, ethereum.CallMsg{To: &b.token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("wallet: token balance of %s: %w", address, err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("wallet: token balance of %s: empty call result", address)
	}

	return weiToUnit(new(big.Int).SetBytes(out)), nil
}

// OnAccountsChanged registers fn to run when the resolved account changes.
// The returned func cancels the registration.
func (b *Bridge) OnAccountsChanged(fn func(accounts []string)) (cancel func()) {
	b.mu.Lock()
	id := b.nextListen
	b.nextListen++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Close releases the underlying RPC connection.
func (b *Bridge) Close() {
	b.eth.Close()
}

// weiToUnit converts a wei amount to a float64 whole-coin amount.
func weiToUnit(wei *big.Int) float64 {
	f := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetFloat64(params.Ether),
	)
	out, _ := f.Float64()
	return out
}

// Compile-time interface check.
var _ domain.WalletBridge = (*Bridge)(nil)

// Package ledger defines the contracts of the external value-movement
// collaborators. The engine never signs, looks up, or holds funds itself; it
// only asks these interfaces questions and forwards opaque seeds.
package ledger

import "context"

// Transfer is a confirmed or pending value movement as reported by the chain.
type Transfer struct {
	ID        string
	From      string
	To        string
	Amount    float64
	Memo      string
	Confirmed bool
}

// TransferQuery describes the transfer an escrow step claims to have made.
// TxID is optional; without it the finder looks for the latest transfer
// matching the from/to/memo triple.
type TransferQuery struct {
	TxID   string
	From   string
	To     string
	Amount float64
	Memo   string
}

// Balance is an account balance in base units plus a pre-scaled human value.
type Balance struct {
	Raw      string  `json:"balanceRaw"`
	Amount   float64 `json:"balance"`
	Decimals int     `json:"decimals"`
}

// Wallet derives stable public addresses from opaque seeds.
type Wallet interface {
	NewWallet(ctx context.Context) (seed, address string, err error)
	AddressFromSeed(ctx context.Context, seed string) (string, error)
}

// BalanceReader reports an address's balance for a token.
type BalanceReader interface {
	Balance(ctx context.Context, address, token string) (Balance, error)
}

// Payer submits house-signed transfers; it is the payout direction.
type Payer interface {
	Pay(ctx context.Context, to string, amount float64, memo string) (txID string, err error)
}

// Sender submits a transfer signed by the given seed; it is how a player
// funds escrow in dev flows.
type Sender interface {
	Send(ctx context.Context, seed, to string, amount float64, memo string) (txID string, err error)
}

// TransferFinder answers whether a transfer matching the query exists.
// A nil Transfer with nil error means no candidate was found at all.
type TransferFinder interface {
	FindTransfer(ctx context.Context, q TransferQuery) (*Transfer, error)
}

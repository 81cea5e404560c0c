// Package devchain is an in-process stand-in for the real network client.
// It keeps balances and memo'd transfers in memory so the escrow gate and
// payout dispatcher can be exercised end to end without a node. Unlike the
// always-ok stub it replaces, it rejects transfers that do not exist, so the
// gate's failure paths stay honest.
package devchain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"golang.org/x/crypto/blake2b"

	"blackjack-house-go/backend/internal/ledger"
)

const (
	// AddressPrefix marks devchain addresses, the way the real network
	// prefixes its public key strings.
	AddressPrefix = "dev_"

	decimals = 9
)

// Chain implements ledger.Wallet, BalanceReader, Payer, Sender and
// TransferFinder over in-memory state. Safe for concurrent use.
type Chain struct {
	mu        sync.Mutex
	houseSeed string
	balances  map[string]int64 // base units
	transfers []ledger.Transfer
	seq       int
}

func New(houseSeed string) *Chain {
	c := &Chain{
		houseSeed: houseSeed,
		balances:  map[string]int64{},
	}
	// The house starts funded so payouts never bounce in dev.
	c.balances[addressOf(houseSeed)] = toBaseUnits(1_000_000)
	return c
}

func addressOf(seed string) string {
	sum := blake2b.Sum256([]byte(seed))
	return AddressPrefix + hex.EncodeToString(sum[:20])
}

func toBaseUnits(amount float64) int64 {
	return int64(math.Round(amount * math.Pow10(decimals)))
}

func fromBaseUnits(raw int64) float64 {
	return float64(raw) / math.Pow10(decimals)
}

func (c *Chain) NewWallet(ctx context.Context) (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("devchain: new wallet: %w", err)
	}
	seed := hex.EncodeToString(buf)
	return seed, addressOf(seed), nil
}

func (c *Chain) AddressFromSeed(ctx context.Context, seed string) (string, error) {
	if seed == "" {
		return "", fmt.Errorf("devchain: empty seed")
	}
	return addressOf(seed), nil
}

func (c *Chain) Balance(ctx context.Context, address, token string) (ledger.Balance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw := c.balances[address]
	return ledger.Balance{
		Raw:      fmt.Sprintf("%d", raw),
		Amount:   fromBaseUnits(raw),
		Decimals: decimals,
	}, nil
}

// HouseAddress is the address payouts are signed from.
func (c *Chain) HouseAddress() string {
	return addressOf(c.houseSeed)
}

// Fund credits an address out of thin air. Dev/test only.
func (c *Chain) Fund(address string, amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[address] += toBaseUnits(amount)
}

func (c *Chain) Pay(ctx context.Context, to string, amount float64, memo string) (string, error) {
	return c.transfer(addressOf(c.houseSeed), to, amount, memo)
}

func (c *Chain) Send(ctx context.Context, seed, to string, amount float64, memo string) (string, error) {
	return c.transfer(addressOf(seed), to, amount, memo)
}

func (c *Chain) transfer(from, to string, amount float64, memo string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("devchain: invalid amount %v", amount)
	}
	units := toBaseUnits(amount)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[from] < units {
		return "", fmt.Errorf("devchain: insufficient funds in %s", from)
	}
	c.balances[from] -= units
	c.balances[to] += units

	c.seq++
	tx := ledger.Transfer{
		ID:        fmt.Sprintf("devtx-%06d", c.seq),
		From:      from,
		To:        to,
		Amount:    amount,
		Memo:      memo,
		Confirmed: true,
	}
	c.transfers = append(c.transfers, tx)
	return tx.ID, nil
}

func (c *Chain) FindTransfer(ctx context.Context, q ledger.TransferQuery) (*ledger.Transfer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if q.TxID != "" {
		for i := range c.transfers {
			if c.transfers[i].ID == q.TxID {
				tx := c.transfers[i]
				return &tx, nil
			}
		}
		return nil, nil
	}

	// Latest transfer matching the from/to/memo triple.
	for i := len(c.transfers) - 1; i >= 0; i-- {
		t := c.transfers[i]
		if t.From == q.From && t.To == q.To && t.Memo == q.Memo {
			tx := t
			return &tx, nil
		}
	}
	return nil, nil
}

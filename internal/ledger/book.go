package ledger

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

type balanceKey struct {
	account common.Address
	asset   string
}

// Book tracks balances per (account, asset). All custody money the ledger
// holds between creation and terminal resolution lives on the custody
// account, so the sum over the book is invariant across executions and
// cancellations.
type Book struct {
	mu       sync.RWMutex
	balances map[balanceKey]*big.Int
}

func NewBook() *Book {
	return &Book{
		balances: make(map[balanceKey]*big.Int),
	}
}

// Balance returns the current balance of the account for the given asset.
func (b *Book) Balance(account common.Address, asset types.Asset) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bal, ok := b.balances[balanceKey{account, asset.String()}]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// Credit adds amount to the account's balance.
func (b *Book) Credit(account common.Address, asset types.Asset, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, asset, amount)
}

// Debit removes amount from the account's balance, failing if the balance
// would go negative.
func (b *Book) Debit(account common.Address, asset types.Asset, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debit(account, asset, amount)
}

// Transfer moves amount between accounts as one indivisible operation.
func (b *Book) Transfer(from, to common.Address, asset types.Asset, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.debit(from, asset, amount); err != nil {
		return err
	}
	b.credit(to, asset, amount)
	return nil
}

func (b *Book) credit(account common.Address, asset types.Asset, amount *big.Int) {
	key := balanceKey{account, asset.String()}
	bal, ok := b.balances[key]
	if !ok {
		bal = big.NewInt(0)
		b.balances[key] = bal
	}
	bal.Add(bal, amount)
}

func (b *Book) debit(account common.Address, asset types.Asset, amount *big.Int) error {
	key := balanceKey{account, asset.String()}
	bal, ok := b.balances[key]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	bal.Sub(bal, amount)
	return nil
}

// TotalSupply returns the sum of all balances for the given asset. Used to
// verify that no value is created or destroyed across job lifecycles.
func (b *Book) TotalSupply(asset types.Asset) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := big.NewInt(0)
	for key, bal := range b.balances {
		if key.asset == asset.String() {
			total.Add(total, bal)
		}
	}
	return total
}

package domain

import (
	"context"

	"maker_go/pkg/quant"
)

// BookOrder is one resting order as reported by a full book snapshot.
type BookOrder struct {
	Owner [32]byte
	ID    OrderID
	Price quant.PriceLots
	Size  quant.QtyLots
}

// Fill is one matched quantity against a local order, decoded from the
// venue event queue.
type Fill struct {
	ID   OrderID
	Side Side
	Qty  quant.QtyLots
	Seq  uint64
}

// SettleAccount is a venue subaccount holding freed maker balance.
type SettleAccount struct {
	Key       string
	BaseFree  quant.QtyLots
	QuoteFree quant.QtyLots
}

// Gateway is the venue boundary. The engine treats it as stateless:
// every call either succeeds, fails retriably (transport), or fails
// fatally (venue rejection). Wire formats, account layouts and signing
// live behind this interface.
type Gateway interface {
	// LoadBook returns a full snapshot of one book side, best price
	// first. Used only at startup and overflow recovery.
	LoadBook(ctx context.Context, side Side) ([]BookOrder, error)

	// LoadEventCursor returns the venue's current event sequence number.
	LoadEventCursor(ctx context.Context) (uint64, error)

	// PlaceOrder rests a new limit order under the given client id.
	PlaceOrder(ctx context.Context, side Side, price quant.PriceLots, size quant.QtyLots, id OrderID) error

	// CancelOrder removes the resting order with the given client id.
	CancelOrder(ctx context.Context, id OrderID) error

	// Settle sweeps freed balance from a subaccount into the maker's
	// wallets. Settling an account with zero free balance is a venue-side
	// no-op.
	Settle(ctx context.Context, account SettleAccount) error

	// OpenOrdersAccounts enumerates the maker's subaccounts with their
	// current free balances.
	OpenOrdersAccounts(ctx context.Context) ([]SettleAccount, error)
}

package maker

import (
	"context"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// MarketMaker is the reconciliation strategy driven by the Sequencer.
// All methods are called from the single sequencer goroutine, one at a
// time, and any venue calls an implementation makes belong to that same
// critical section: a second notification is never processed mid-reprice.
type MarketMaker interface {
	// InitializePositions seeds the quote and order sets from a full
	// venue snapshot. Called once at startup and again after an event
	// queue overflow invalidates local state.
	InitializePositions(ctx context.Context) error

	// OnBookUpdate reacts to a new best price on one side of the book.
	OnBookUpdate(ctx context.Context, side domain.Side, best quant.PriceLots) error

	// OnFills applies a sequence-ordered batch of fills against the
	// local order sets. An empty batch is a no-op.
	OnFills(ctx context.Context, fills []domain.Fill) error
}

package maker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/infra"
	"maker_go/internal/wire"
	"maker_go/pkg/quant"
	"maker_go/pkg/safe"
)

// Config holds the quoting parameters.
type Config struct {
	Owner        [32]byte        // venue identity, for snapshot ownership recovery
	StandingSize quant.QtyLots   // intended resting size per side
	Floor        quant.PriceLots // best-bid default for an empty bid side
	Ceiling      quant.PriceLots // best-ask default for an empty ask side
	MaxAttempts  int             // venue call attempts before giving up (default 3)
}

// Quoter keeps one resting bid and one resting ask at the top of the
// book. It owns the quote prices, the order sets and the id codec; no
// other component reads or writes them. All methods run on the single
// sequencer goroutine, so there is no locking here.
//
// State transitions are optimistic with rollback: a venue call that
// ultimately fails leaves the local model describing only what is
// actually known to rest in the market, and the error propagates to the
// sequencer so the next notification re-evaluates from consistent state.
type Quoter struct {
	gw    domain.Gateway
	cfg   Config
	codec domain.OrderIDCodec

	bidPrice  quant.PriceLots
	askPrice  quant.PriceLots
	bidOrders []*domain.OrderState
	askOrders []*domain.OrderState

	// Boundary: notifies journal / settlement outside the hotpath state.
	onFill func(domain.Fill)
}

// NewQuoter creates a quoter. onFill may be nil.
func NewQuoter(gw domain.Gateway, cfg Config, onFill func(domain.Fill)) *Quoter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Quoter{gw: gw, cfg: cfg, onFill: onFill}
}

// InitializePositions rebuilds the quote and order sets from a full venue
// snapshot. Orders recovered from the book are adopted when they form a
// single price level; a multi-level remnant (e.g. left by a crashed run)
// is cancelled wholesale and requoted.
func (q *Quoter) InitializePositions(ctx context.Context) error {
	q.bidOrders, q.askOrders = nil, nil

	for _, side := range []domain.Side{domain.SideBid, domain.SideAsk} {
		snap, err := q.gw.LoadBook(ctx, side)
		if err != nil {
			return fmt.Errorf("load book %s: %w", side, err)
		}
		best := wire.BestFromSnapshot(snap, side, q.cfg.Floor, q.cfg.Ceiling)
		own := wire.OwnFromSnapshot(snap, side, q.cfg.Owner)

		// Never mint an id that could collide with one still resting.
		for _, o := range own {
			q.codec.Advance(domain.EmbeddedSeq(o.ID, side))
		}

		if len(own) > 0 && singlePriceLevel(own) {
			set := make([]*domain.OrderState, 0, len(own))
			for i := range own {
				o := own[i]
				set = append(set, &o)
			}
			*q.orders(side) = set
			*q.quote(side) = own[0].Price
			slog.Info("adopted resting orders from snapshot",
				slog.String("side", side.String()),
				slog.Int("orders", len(own)),
				slog.String("price", own[0].Price.String()))
			continue
		}

		for i := range own {
			o := own[i]
			if err := q.call(ctx, "cancelOrder", func(ctx context.Context) error {
				return q.gw.CancelOrder(ctx, o.ID)
			}); err != nil {
				return fmt.Errorf("cancel stale order %s: %w", o.ID, err)
			}
		}

		if err := q.quoteFresh(ctx, side, best, q.cfg.StandingSize); err != nil {
			return err
		}
	}

	q.checkInvariants()
	return nil
}

// OnBookUpdate reprices one side when a strictly more competitive price
// appears. Anything else is a no-op: we are still at the top, or the
// change concerns the other side.
func (q *Quoter) OnBookUpdate(ctx context.Context, side domain.Side, best quant.PriceLots) error {
	cur := *q.quote(side)
	if side == domain.SideBid && best <= cur {
		return nil
	}
	if side == domain.SideAsk && best >= cur {
		return nil
	}

	// Cancel the side order by order, shrinking the set as each cancel
	// confirms. On failure the set still names exactly the orders that
	// may rest in the market, and the quote price is untouched, so the
	// next update re-triggers this path.
	set := q.orders(side)
	remaining := *set
	for len(remaining) > 0 {
		o := remaining[0]
		if err := q.call(ctx, "cancelOrder", func(ctx context.Context) error {
			return q.gw.CancelOrder(ctx, o.ID)
		}); err != nil {
			*set = remaining
			return fmt.Errorf("reprice %s: cancel %s: %w", side, o.ID, err)
		}
		remaining = remaining[1:]
	}
	*set = nil

	if err := q.quoteFresh(ctx, side, best, q.cfg.StandingSize); err != nil {
		// Side is flat locally and at the venue. The quote price still
		// holds its previous value, so the same best price arriving again
		// re-triggers placement.
		return fmt.Errorf("reprice %s: %w", side, err)
	}

	infra.GlobalMetrics.RecordReprice()
	q.checkInvariants()
	return nil
}

// OnFills applies a sequence-ordered fill batch: decrement matched
// orders, drop exhausted ones, then top up any partially consumed side
// at its current price. A side consumed for the full standing size is
// left alone; the book-update path owns its replacement, and topping up
// here would race with it.
func (q *Quoter) OnFills(ctx context.Context, fills []domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	var filledBid, filledAsk int64
	for _, f := range fills {
		o, set := q.find(f.ID)
		if o == nil {
			// Possible after a reprice raced a fill at the venue: the
			// order was cancelled locally before its fill arrived.
			slog.Warn("fill for unknown order",
				slog.String("id", f.ID.String()),
				slog.Uint64("seq", f.Seq))
			continue
		}
		if int64(f.Qty) > int64(o.Size) {
			panic(fmt.Sprintf("FILL_EXCEEDS_RESTING: order %s size %d, fill %d (seq %d)",
				o.ID, o.Size, f.Qty, f.Seq))
		}
		o.Size = quant.QtyLots(safe.Sub(int64(o.Size), int64(f.Qty)))
		if o.Side == domain.SideBid {
			filledBid = safe.Add(filledBid, int64(f.Qty))
		} else {
			filledAsk = safe.Add(filledAsk, int64(f.Qty))
		}
		if o.Size == 0 {
			q.remove(set, o.ID)
		}
		infra.GlobalMetrics.RecordFill()
		if q.onFill != nil {
			q.onFill(f)
		}
	}

	var firstErr error
	for _, side := range []domain.Side{domain.SideBid, domain.SideAsk} {
		filled := filledBid
		if side == domain.SideAsk {
			filled = filledAsk
		}
		if filled == 0 || filled >= int64(q.cfg.StandingSize) {
			continue
		}
		price := *q.quote(side)
		id := q.codec.Next(price, side)
		err := q.call(ctx, "placeOrder", func(ctx context.Context) error {
			return q.gw.PlaceOrder(ctx, side, price, quant.QtyLots(filled), id)
		})
		if err != nil {
			slog.Error("top-up placement failed",
				slog.String("side", side.String()),
				slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		*q.orders(side) = append(*q.orders(side), &domain.OrderState{
			ID: id, Side: side, Price: price, Size: quant.QtyLots(filled),
		})
		infra.GlobalMetrics.RecordTopUp()
	}

	q.checkInvariants()
	return firstErr
}

// quoteFresh places a single new order and installs it as the side's
// entire order set on success.
func (q *Quoter) quoteFresh(ctx context.Context, side domain.Side, price quant.PriceLots, size quant.QtyLots) error {
	id := q.codec.Next(price, side)
	err := q.call(ctx, "placeOrder", func(ctx context.Context) error {
		return q.gw.PlaceOrder(ctx, side, price, size, id)
	})
	if err != nil {
		return err
	}
	*q.orders(side) = []*domain.OrderState{{ID: id, Side: side, Price: price, Size: size}}
	*q.quote(side) = price
	return nil
}

// call runs one venue operation, retrying with exponential backoff while
// the error is retriable.
func (q *Quoter) call(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < q.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			infra.GlobalMetrics.RecordGatewayRetry()
			select {
			case <-ctx.Done():
				return domain.NewGatewayError(op, ctx.Err())
			case <-time.After(infra.CalculateBackoff(attempt - 1)):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if !domain.IsRetriable(err) {
			break
		}
		slog.Warn("venue call failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))
	}
	infra.GlobalMetrics.RecordError()
	return err
}

func (q *Quoter) orders(side domain.Side) *[]*domain.OrderState {
	if side == domain.SideBid {
		return &q.bidOrders
	}
	return &q.askOrders
}

func (q *Quoter) quote(side domain.Side) *quant.PriceLots {
	if side == domain.SideBid {
		return &q.bidPrice
	}
	return &q.askPrice
}

func (q *Quoter) find(id domain.OrderID) (*domain.OrderState, *[]*domain.OrderState) {
	for _, o := range q.bidOrders {
		if o.ID == id {
			return o, &q.bidOrders
		}
	}
	for _, o := range q.askOrders {
		if o.ID == id {
			return o, &q.askOrders
		}
	}
	return nil, nil
}

func (q *Quoter) remove(set *[]*domain.OrderState, id domain.OrderID) {
	orders := *set
	for i, o := range orders {
		if o.ID == id {
			*set = append(orders[:i], orders[i+1:]...)
			return
		}
	}
}

// checkInvariants halts on state the transition rules can never legally
// produce: two price levels on one side, or a zero/negative resting size.
func (q *Quoter) checkInvariants() {
	for _, side := range []domain.Side{domain.SideBid, domain.SideAsk} {
		orders := *q.orders(side)
		for _, o := range orders {
			if o.Size <= 0 {
				panic(fmt.Sprintf("QUOTE_INVARIANT_NONPOSITIVE_SIZE: %s order %s size %d",
					side, o.ID, o.Size))
			}
			if o.Price != orders[0].Price {
				panic(fmt.Sprintf("QUOTE_INVARIANT_SPLIT_LEVEL: %s orders at %d and %d",
					side, orders[0].Price, o.Price))
			}
		}
	}
}

// Snapshot is a copy of the quoter state for dumps and tests.
type Snapshot struct {
	BidPrice  quant.PriceLots     `json:"bid_price"`
	AskPrice  quant.PriceLots     `json:"ask_price"`
	BidOrders []domain.OrderState `json:"bid_orders"`
	AskOrders []domain.OrderState `json:"ask_orders"`
	NextIDSeq uint64              `json:"next_id_seq"`
}

// Snapshot returns a deep copy of the current state.
func (q *Quoter) Snapshot() Snapshot {
	s := Snapshot{
		BidPrice:  q.bidPrice,
		AskPrice:  q.askPrice,
		NextIDSeq: q.codec.Seq(),
	}
	for _, o := range q.bidOrders {
		s.BidOrders = append(s.BidOrders, *o)
	}
	for _, o := range q.askOrders {
		s.AskOrders = append(s.AskOrders, *o)
	}
	return s
}

var _ MarketMaker = (*Quoter)(nil)

func singlePriceLevel(orders []domain.OrderState) bool {
	for _, o := range orders[1:] {
		if o.Price != orders[0].Price {
			return false
		}
	}
	return true
}

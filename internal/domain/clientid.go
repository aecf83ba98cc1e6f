package domain

import "maker_go/pkg/quant"

// OrderIDCodec mints client order ids. The counter increments on every
// call and is never reused, which keeps ids unique for the lifetime of
// the process regardless of side interleaving. Not safe for concurrent
// use: the reconciliation engine is the only caller and runs on a single
// goroutine.
type OrderIDCodec struct {
	seq uint64
}

// Next returns a fresh id for an order at the given price and side.
// The price occupies the high 64 bits; the sequence counter occupies the
// low 64 bits and is bit-inverted for asks, the venue's convention for
// keeping ask ids ordered opposite to bids.
func (c *OrderIDCodec) Next(price quant.PriceLots, side Side) OrderID {
	c.seq++
	lo := c.seq
	if side == SideAsk {
		lo = ^lo
	}
	return OrderID{Hi: uint64(price), Lo: lo}
}

// Seq returns the last issued sequence value.
func (c *OrderIDCodec) Seq() uint64 {
	return c.seq
}

// Advance moves the counter forward to at least seq. Used when adopting
// orders recovered from a book snapshot, so fresh ids never collide with
// ids still resting in the market.
func (c *OrderIDCodec) Advance(seq uint64) {
	if seq > c.seq {
		c.seq = seq
	}
}

// EmbeddedSeq extracts the sequence counter an id was minted with.
func EmbeddedSeq(id OrderID, side Side) uint64 {
	if side == SideAsk {
		return ^id.Lo
	}
	return id.Lo
}

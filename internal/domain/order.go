package domain

import (
	"fmt"

	"maker_go/pkg/quant"
)

// Side identifies one half of the book.
type Side uint8

const (
	SideBid Side = iota + 1
	SideAsk
)

// String returns the string representation of Side.
func (s Side) String() string {
	switch s {
	case SideBid:
		return "BID"
	case SideAsk:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// OrderID is a 128-bit client order identifier. Hi carries the price and
// Lo carries the encode-time sequence counter (bit-inverted for asks), so
// ids sort by price when printed and never collide across sides or time.
type OrderID struct {
	Hi uint64 `json:"hi"`
	Lo uint64 `json:"lo"`
}

// IsZero reports whether the id is the zero value.
func (id OrderID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

// String renders the id as hi:lo hex, matching venue explorer output.
func (id OrderID) String() string {
	return fmt.Sprintf("%016x:%016x", id.Hi, id.Lo)
}

// OrderState is the local model of a single resting order. Identity is ID;
// two OrderStates are equal iff all four fields match. Size is the only
// field mutated after placement: it is decremented as fills are observed
// and the record is removed when it reaches exactly zero. OrderStates are
// owned exclusively by the reconciliation engine.
type OrderState struct {
	ID    OrderID         `json:"id"`
	Side  Side            `json:"side"`
	Price quant.PriceLots `json:"price"`
	Size  quant.QtyLots   `json:"size"`
}

// Equal reports full value equality.
func (o OrderState) Equal(other OrderState) bool {
	return o.ID == other.ID && o.Side == other.Side &&
		o.Price == other.Price && o.Size == other.Size
}

// Package quant defines the scalar types used on the hotpath.
// All venue quantities are strictly int64 in native lot units; conversion
// from human-readable decimals happens once, at the configuration boundary.
package quant

import "strconv"

// PriceLots is a limit price in venue price lots.
type PriceLots int64

// QtyLots is an order quantity in venue base lots.
type QtyLots int64

// TimeStamp is a Unix timestamp in microseconds.
type TimeStamp int64

func (p PriceLots) String() string {
	return strconv.FormatInt(int64(p), 10)
}

func (q QtyLots) String() string {
	return strconv.FormatInt(int64(q), 10)
}

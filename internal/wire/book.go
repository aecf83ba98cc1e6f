package wire

import (
	"encoding/binary"
	"fmt"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// BookSide is the interpreted view of one side of the book: the best
// resting price and, filtered by ownership, our own resting orders.
// Own is consulted only at startup and overflow recovery; in steady state
// the engine trusts its in-memory order sets plus fill events instead of
// re-deriving ownership from every snapshot.
type BookSide struct {
	Side domain.Side
	Best quant.PriceLots
	Own  []domain.OrderState
}

// DecodeBookOrders decodes every resting order from a raw side snapshot.
func DecodeBookOrders(buf []byte, side domain.Side) ([]domain.BookOrder, error) {
	flags, err := checkHeader(buf)
	if err != nil {
		return nil, err
	}
	if flags&flagInitialized == 0 {
		return nil, fmt.Errorf("book side %s: account not initialized: %w", side, domain.ErrBadPadding)
	}
	wantFlag := uint64(flagBids)
	if side == domain.SideAsk {
		wantFlag = flagAsks
	}
	if flags&wantFlag == 0 {
		return nil, fmt.Errorf("book side %s: account flags %#x do not mark this side: %w", side, flags, domain.ErrBadPadding)
	}
	if len(buf) < bookHeaderSize {
		return nil, domain.ErrTruncatedBuffer
	}

	count := int(binary.LittleEndian.Uint32(buf[13:17]))
	if len(buf) < bookHeaderSize+count*bookRecordSize {
		return nil, fmt.Errorf("book side %s: %d records declared: %w", side, count, domain.ErrTruncatedBuffer)
	}

	orders := make([]domain.BookOrder, 0, count)
	for i := 0; i < count; i++ {
		rec := buf[bookHeaderSize+i*bookRecordSize:]
		var o domain.BookOrder
		copy(o.Owner[:], rec[:32])
		o.ID = domain.OrderID{
			Lo: binary.LittleEndian.Uint64(rec[32:40]),
			Hi: binary.LittleEndian.Uint64(rec[40:48]),
		}
		o.Price = quant.PriceLots(binary.LittleEndian.Uint64(rec[48:56]))
		o.Size = quant.QtyLots(binary.LittleEndian.Uint64(rec[56:64]))
		orders = append(orders, o)
	}
	return orders, nil
}

// InterpretBookSide decodes a raw side snapshot into its best price and
// the maker's own resting orders. An empty side yields the configured
// floor (bids) or ceiling (asks) so the engine never reprices toward an
// undefined extreme.
func InterpretBookSide(buf []byte, side domain.Side, owner [32]byte, floor, ceiling quant.PriceLots) (BookSide, error) {
	orders, err := DecodeBookOrders(buf, side)
	if err != nil {
		return BookSide{}, err
	}
	return BookSide{
		Side: side,
		Best: BestFromSnapshot(orders, side, floor, ceiling),
		Own:  OwnFromSnapshot(orders, side, owner),
	}, nil
}

// BestFromSnapshot reduces a decoded snapshot to the best price (maximum
// for bids, minimum for asks), with floor/ceiling defaulting when the
// side is empty.
func BestFromSnapshot(orders []domain.BookOrder, side domain.Side, floor, ceiling quant.PriceLots) quant.PriceLots {
	if len(orders) == 0 {
		if side == domain.SideBid {
			return floor
		}
		return ceiling
	}
	best := orders[0].Price
	for _, o := range orders[1:] {
		if side == domain.SideBid && o.Price > best {
			best = o.Price
		} else if side == domain.SideAsk && o.Price < best {
			best = o.Price
		}
	}
	return best
}

// OwnFromSnapshot filters a decoded snapshot down to the maker's orders.
func OwnFromSnapshot(orders []domain.BookOrder, side domain.Side, owner [32]byte) []domain.OrderState {
	var own []domain.OrderState
	for _, o := range orders {
		if o.Owner != owner {
			continue
		}
		own = append(own, domain.OrderState{ID: o.ID, Side: side, Price: o.Price, Size: o.Size})
	}
	return own
}

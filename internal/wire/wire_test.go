package wire

import (
	"encoding/binary"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// Test-side encoders for the venue layouts. Production code never encodes
// these accounts; only the venue does.

type testBookOrder struct {
	owner [32]byte
	id    domain.OrderID
	price uint64
	size  uint64
}

func buildBookSide(side domain.Side, orders []testBookOrder) []byte {
	buf := make([]byte, bookHeaderSize+len(orders)*bookRecordSize)
	copy(buf, accountHeadPadding)
	flags := uint64(flagInitialized)
	if side == domain.SideBid {
		flags |= flagBids
	} else {
		flags |= flagAsks
	}
	binary.LittleEndian.PutUint64(buf[5:13], flags)
	binary.LittleEndian.PutUint32(buf[13:17], uint32(len(orders)))
	for i, o := range orders {
		rec := buf[bookHeaderSize+i*bookRecordSize:]
		copy(rec[:32], o.owner[:])
		binary.LittleEndian.PutUint64(rec[32:40], o.id.Lo)
		binary.LittleEndian.PutUint64(rec[40:48], o.id.Hi)
		binary.LittleEndian.PutUint64(rec[48:56], o.price)
		binary.LittleEndian.PutUint64(rec[56:64], o.size)
	}
	return buf
}

type testEvent struct {
	fill bool
	side domain.Side
	id   domain.OrderID
	qty  uint64
}

// buildEventQueue lays events into a ring of the given capacity such that
// the newest event carries sequence number seq.
func buildEventQueue(ringCap, head int, seq uint64, events []testEvent) []byte {
	buf := make([]byte, queueHeaderSize+ringCap*eventSize)
	copy(buf, accountHeadPadding)
	binary.LittleEndian.PutUint64(buf[5:13], flagInitialized|flagEventQueue)
	binary.LittleEndian.PutUint32(buf[13:17], uint32(head))
	binary.LittleEndian.PutUint32(buf[17:21], uint32(len(events)))
	binary.LittleEndian.PutUint64(buf[21:29], seq)
	for j, e := range events {
		ev := buf[queueHeaderSize+((head+j)%ringCap)*eventSize:]
		var flags byte
		if e.fill {
			flags |= eventFlagFill
		} else {
			flags |= eventFlagOut
		}
		if e.side == domain.SideBid {
			flags |= eventFlagBid
		}
		ev[0] = flags
		binary.LittleEndian.PutUint64(ev[8:16], e.id.Lo)
		binary.LittleEndian.PutUint64(ev[16:24], e.id.Hi)
		binary.LittleEndian.PutUint64(ev[24:32], e.qty)
	}
	return buf
}

func lots(v int64) quant.QtyLots { return quant.QtyLots(v) }

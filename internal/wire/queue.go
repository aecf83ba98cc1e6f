package wire

import (
	"encoding/binary"
	"fmt"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// CursorOf returns the running sequence number from an event queue
// header without consuming any events.
func CursorOf(buf []byte) (uint64, error) {
	flags, err := checkHeader(buf)
	if err != nil {
		return 0, err
	}
	if flags&flagEventQueue == 0 {
		return 0, fmt.Errorf("event queue: account flags %#x: %w", flags, domain.ErrBadPadding)
	}
	if len(buf) < queueHeaderSize {
		return 0, domain.ErrTruncatedBuffer
	}
	return binary.LittleEndian.Uint64(buf[21:29]), nil
}

// FillsSince decodes an event queue buffer and returns the fill-flagged
// events strictly newer than cursor, oldest first, together with the new
// cursor value (the header's running sequence number).
//
// Advancement is idempotent: replaying a buffer with the returned cursor
// yields nothing. If the ring has already wrapped past events we have not
// read, the gap is unrecoverable and ErrQueueOverflow is returned; the
// caller must rebuild state from a full book snapshot.
func FillsSince(buf []byte, cursor uint64) ([]domain.Fill, uint64, error) {
	flags, err := checkHeader(buf)
	if err != nil {
		return nil, cursor, err
	}
	if flags&flagEventQueue == 0 {
		return nil, cursor, fmt.Errorf("event queue: account flags %#x: %w", flags, domain.ErrBadPadding)
	}
	if len(buf) < queueHeaderSize {
		return nil, cursor, domain.ErrTruncatedBuffer
	}

	head := int(binary.LittleEndian.Uint32(buf[13:17]))
	count := int(binary.LittleEndian.Uint32(buf[17:21]))
	seq := binary.LittleEndian.Uint64(buf[21:29])

	ringCap := (len(buf) - queueHeaderSize) / eventSize
	if ringCap == 0 || count > ringCap || head >= ringCap {
		return nil, cursor, fmt.Errorf("event queue: head=%d count=%d cap=%d: %w", head, count, ringCap, domain.ErrTruncatedBuffer)
	}

	// The queue has already seen nothing new.
	if seq <= cursor {
		return nil, cursor, nil
	}

	// Buffered events cover sequences (seq-count, seq]. Anything between
	// our cursor and the oldest buffered event has been overwritten.
	oldest := seq - uint64(count) + 1
	if count == 0 {
		oldest = seq + 1
	}
	if cursor+1 < oldest {
		return nil, cursor, fmt.Errorf("cursor %d, oldest buffered %d: %w", cursor, oldest, domain.ErrQueueOverflow)
	}

	var fills []domain.Fill
	for j := 0; j < count; j++ {
		evSeq := seq - uint64(count) + 1 + uint64(j)
		if evSeq <= cursor {
			continue
		}
		ev := buf[queueHeaderSize+((head+j)%ringCap)*eventSize:]
		if ev[0]&eventFlagFill == 0 {
			continue
		}
		side := domain.SideAsk
		if ev[0]&eventFlagBid != 0 {
			side = domain.SideBid
		}
		fills = append(fills, domain.Fill{
			ID: domain.OrderID{
				Lo: binary.LittleEndian.Uint64(ev[8:16]),
				Hi: binary.LittleEndian.Uint64(ev[16:24]),
			},
			Side: side,
			Qty:  quant.QtyLots(binary.LittleEndian.Uint64(ev[24:32])),
			Seq:  evSeq,
		})
	}
	return fills, seq, nil
}

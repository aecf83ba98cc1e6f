// Package wire decodes the venue's binary account layouts. Layouts are
// venue-defined and decoded exactly once, here, at the interpreter
// boundary; nothing downstream of this package touches raw bytes.
//
// All integers are little-endian. Every account begins with a 5-byte head
// padding followed by a u64 account-flags word.
package wire

import (
	"bytes"
	"encoding/binary"

	"maker_go/internal/domain"
)

var accountHeadPadding = []byte{'l', 'o', 'b', 'v', '1'}

const (
	// Account flag bits.
	flagInitialized = 1 << 0
	flagBids        = 1 << 2
	flagAsks        = 1 << 3
	flagEventQueue  = 1 << 4

	// Event flag bits.
	eventFlagFill = 1 << 0
	eventFlagOut  = 1 << 1
	eventFlagBid  = 1 << 2

	bookHeaderSize  = 5 + 8 + 4      // padding, account flags, order count
	bookRecordSize  = 32 + 8 + 8 + 8 + 8 // owner, id lo, id hi, price, size
	queueHeaderSize = 5 + 8 + 4 + 4 + 8  // padding, flags, head, count, seq
	eventSize       = 1 + 1 + 6 + 8 + 8 + 8 // flags, owner slot, pad, id lo, id hi, qty
)

// checkHeader validates padding and returns the account flags.
func checkHeader(buf []byte) (uint64, error) {
	if len(buf) < 5+8 {
		return 0, domain.ErrTruncatedBuffer
	}
	if !bytes.Equal(buf[:5], accountHeadPadding) {
		return 0, domain.ErrBadPadding
	}
	return binary.LittleEndian.Uint64(buf[5:13]), nil
}

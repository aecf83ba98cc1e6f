package event

import (
	"sync"
)

// Pooling for account update events. Payload buffers arrive at a steady
// rate from the gateway read loop, so recycling both the event struct and
// its data slice keeps the hotpath allocation-free.
//
// Usage:
//
//	ev := AcquireAccountUpdateEvent()
//	ev.Account = AccountBids
//	ev.Data = append(ev.Data, raw...)
//	// ... sequencer processes event ...
//	ReleaseAccountUpdateEvent(ev)
var accountUpdatePool = sync.Pool{
	New: func() interface{} {
		return &AccountUpdateEvent{}
	},
}

// AcquireAccountUpdateEvent gets an AccountUpdateEvent from the pool.
// The returned event has zero-valued fields and an empty (but possibly
// capacity-bearing) Data slice.
func AcquireAccountUpdateEvent() *AccountUpdateEvent {
	return accountUpdatePool.Get().(*AccountUpdateEvent)
}

// ReleaseAccountUpdateEvent returns an AccountUpdateEvent to the pool.
// The data slice is truncated, not freed, so its capacity is reused.
func ReleaseAccountUpdateEvent(ev *AccountUpdateEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Account = 0
	ev.Data = ev.Data[:0]

	accountUpdatePool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	evs := make([]*AccountUpdateEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireAccountUpdateEvent())
	}
	for _, ev := range evs {
		ReleaseAccountUpdateEvent(ev)
	}
}

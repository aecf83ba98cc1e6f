package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/event"
	"maker_go/internal/infra"
	"maker_go/internal/maker"
	"maker_go/internal/wire"
	"maker_go/pkg/quant"
)

// Config holds the sequencer's routing parameters.
type Config struct {
	Owner     [32]byte        // maker identity, for snapshot interpretation
	Floor     quant.PriceLots // empty bid side default
	Ceiling   quant.PriceLots // empty ask side default
	InboxSize int
}

// Sequencer is the core single-threaded event processor. The three
// notification streams (bid side, ask side, event queue) are funneled
// into one inbox and drained by exactly one goroutine, so the market
// maker's state is only ever touched by one notification at a time —
// including the venue calls a notification triggers, which belong to the
// same critical section.
//
// The sequencer owns the venue event cursor and the interpreters; the
// MarketMaker owns quotes and order sets.
type Sequencer struct {
	cfg    Config
	inbox  chan event.Event
	gw     domain.Gateway
	mm     maker.MarketMaker
	cursor uint64 // venue event sequence, monotonically non-decreasing

	nextSeq uint64 // local arrival sequence, gap-checked
}

// NewSequencer creates a new sequencer instance. inbox may be nil, in
// which case the sequencer allocates its own channel of cfg.InboxSize;
// passing one in lets the caller hand the same channel to the gateway
// before the sequencer exists.
func NewSequencer(cfg Config, inbox chan event.Event, gw domain.Gateway, mm maker.MarketMaker) *Sequencer {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 1024
	}
	if inbox == nil {
		inbox = make(chan event.Event, cfg.InboxSize)
	}
	return &Sequencer{
		cfg:     cfg,
		inbox:   inbox,
		gw:      gw,
		mm:      mm,
		nextSeq: 1,
	}
}

// Inbox returns the event channel. The gateway sends raw notifications here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Cursor returns the last processed venue event sequence.
func (s *Sequencer) Cursor() uint64 {
	return s.cursor
}

// Init seeds the venue cursor and the maker's positions from a full
// snapshot. Must complete before Run.
func (s *Sequencer) Init(ctx context.Context) error {
	cursor, err := s.gw.LoadEventCursor(ctx)
	if err != nil {
		return fmt.Errorf("load event cursor: %w", err)
	}
	s.cursor = cursor
	if err := s.mm.InitializePositions(ctx); err != nil {
		return fmt.Errorf("initialize positions: %w", err)
	}
	slog.Info("Sequencer initialized", slog.Uint64("cursor", cursor))
	return nil
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started (Single-Thread Hotpath)")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ctx, ev)
		}
	}
}

func (s *Sequencer) processEvent(ctx context.Context, ev event.Event) {
	start := time.Now()

	// Arrival gap check (halt policy): the gateway numbers notifications
	// as it reads them; a gap means the inbox dropped one.
	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("SEQUENCE_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}

	switch e := ev.(type) {
	case *event.AccountUpdateEvent:
		s.handleAccountUpdate(ctx, e)
		event.ReleaseAccountUpdateEvent(e)
	default:
		slog.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}

	s.nextSeq++
	infra.GlobalMetrics.RecordEvent(time.Since(start).Nanoseconds())
}

func (s *Sequencer) handleAccountUpdate(ctx context.Context, e *event.AccountUpdateEvent) {
	switch e.Account {
	case event.AccountBids:
		s.handleBookUpdate(ctx, domain.SideBid, e.Data)
	case event.AccountAsks:
		s.handleBookUpdate(ctx, domain.SideAsk, e.Data)
	case event.AccountEventQueue:
		s.handleQueueUpdate(ctx, e.Data)
	default:
		slog.Warn("Update for unknown account", slog.Any("account", e.Account))
	}
}

func (s *Sequencer) handleBookUpdate(ctx context.Context, side domain.Side, raw []byte) {
	parsed, err := wire.InterpretBookSide(raw, side, s.cfg.Owner, s.cfg.Floor, s.cfg.Ceiling)
	if err != nil {
		// Fatal for this notification only: acting on a partially decoded
		// book risks corrupting the order sets.
		slog.Error("book decode failed, skipping update",
			slog.String("side", side.String()), slog.Any("error", err))
		infra.GlobalMetrics.RecordError()
		return
	}
	if err := s.mm.OnBookUpdate(ctx, side, parsed.Best); err != nil {
		slog.Error("book update not applied",
			slog.String("side", side.String()), slog.Any("error", err))
		infra.GlobalMetrics.RecordError()
	}
}

func (s *Sequencer) handleQueueUpdate(ctx context.Context, raw []byte) {
	fills, next, err := wire.FillsSince(raw, s.cursor)
	if errors.Is(err, domain.ErrQueueOverflow) {
		s.recoverFromOverflow(ctx, err)
		return
	}
	if err != nil {
		slog.Error("event queue decode failed, skipping update", slog.Any("error", err))
		infra.GlobalMetrics.RecordError()
		return
	}

	s.cursor = next
	if len(fills) == 0 {
		return
	}
	if err := s.mm.OnFills(ctx, fills); err != nil {
		slog.Error("fill batch not fully applied", slog.Any("error", err))
		infra.GlobalMetrics.RecordError()
	}
}

// recoverFromOverflow rebuilds authoritative state after the venue ring
// wrapped past unread events. The missed fills are unrecoverable, so the
// local order sets cannot be trusted; re-derive everything from a full
// snapshot and resume from the venue's current cursor. If even that
// fails the state stays un-trustworthy and we halt.
func (s *Sequencer) recoverFromOverflow(ctx context.Context, cause error) {
	slog.Error("EVENT_QUEUE_OVERFLOW: rebuilding from snapshot", slog.Any("error", cause))
	infra.GlobalMetrics.RecordError()

	cursor, err := s.gw.LoadEventCursor(ctx)
	if err != nil {
		panic(fmt.Sprintf("OVERFLOW_RECOVERY_FAILED: load cursor: %v", err))
	}
	s.cursor = cursor
	if err := s.mm.InitializePositions(ctx); err != nil {
		panic(fmt.Sprintf("OVERFLOW_RECOVERY_FAILED: reinitialize: %v", err))
	}
	slog.Info("Recovered from event queue overflow", slog.Uint64("cursor", cursor))
}

// snapshotter is implemented by makers that can dump their state.
type snapshotter interface {
	Snapshot() maker.Snapshot
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64          `json:"next_seq"`
		Cursor  uint64          `json:"cursor"`
		Maker   *maker.Snapshot `json:"maker,omitempty"`
	}{
		NextSeq: s.nextSeq,
		Cursor:  s.cursor,
	}
	if snap, ok := s.mm.(snapshotter); ok {
		ms := snap.Snapshot()
		data.Maker = &ms
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}

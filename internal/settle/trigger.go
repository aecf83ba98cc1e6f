// Package settle sweeps released funds out of venue open-orders accounts.
package settle

import (
	"context"
	"log/slog"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/infra"
)

// Trigger runs periodic settlement sweeps and accepts out-of-band pokes
// after fills so funds do not sit in the venue longer than one interval.
type Trigger struct {
	gw       domain.Gateway
	interval time.Duration
	poke     chan struct{}

	// Called after each successful settle, e.g. to journal the sweep.
	onSwept func(domain.SettleAccount)
}

// NewTrigger creates a trigger. onSwept may be nil.
func NewTrigger(gw domain.Gateway, interval time.Duration, onSwept func(domain.SettleAccount)) *Trigger {
	return &Trigger{
		gw:       gw,
		interval: interval,
		poke:     make(chan struct{}, 1),
		onSwept:  onSwept,
	}
}

// Poke requests an early sweep. Non-blocking; a pending poke absorbs
// further ones.
func (t *Trigger) Poke() {
	select {
	case t.poke <- struct{}{}:
	default:
	}
}

// Run sweeps on every interval tick and on every poke until the context
// is cancelled. Sweep errors are logged and never stop the loop.
func (t *Trigger) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	slog.Info("settlement trigger started", "interval", t.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("settlement trigger stopped")
			return
		case <-ticker.C:
			t.Sweep(ctx)
		case <-t.poke:
			t.Sweep(ctx)
		}
	}
}

// Sweep settles every open-orders account that holds free funds.
func (t *Trigger) Sweep(ctx context.Context) {
	accounts, err := t.gw.OpenOrdersAccounts(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordError()
		slog.Error("settlement sweep: listing open-orders accounts failed", "error", err)
		return
	}

	swept := 0
	for _, acct := range accounts {
		if acct.BaseFree <= 0 && acct.QuoteFree <= 0 {
			continue
		}
		if err := t.gw.Settle(ctx, acct); err != nil {
			infra.GlobalMetrics.RecordError()
			slog.Error("settlement failed",
				"account", acct.Key,
				"base_free", acct.BaseFree,
				"quote_free", acct.QuoteFree,
				"error", err)
			continue
		}
		swept++
		if t.onSwept != nil {
			t.onSwept(acct)
		}
		slog.Info("settled",
			"account", acct.Key,
			"base_free", acct.BaseFree,
			"quote_free", acct.QuoteFree)
	}
	if swept > 0 {
		infra.GlobalMetrics.RecordSettleSweep()
	}
}

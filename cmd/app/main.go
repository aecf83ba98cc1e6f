package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"maker_go/internal/app"
	"maker_go/internal/domain"
	"maker_go/internal/engine"
	"maker_go/internal/event"
	"maker_go/internal/gateway"
	"maker_go/internal/maker"
	"maker_go/internal/settle"
	"maker_go/pkg/quant"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := cfg.Identity()
	if err != nil {
		slog.Error("❌ Invalid venue identity", slog.Any("error", err))
		os.Exit(1)
	}

	// 4. Venue Gateway
	// The inbox is created here so the gateway can hold it before the
	// sequencer exists; the sequencer adopts the same channel below.
	inboxSize := cfg.Quoting.InboxSize
	if inboxSize <= 0 {
		inboxSize = 1024
	}
	inbox := make(chan event.Event, inboxSize)

	client := gateway.NewClient(gateway.Config{
		URL:               cfg.Venue.WSURL,
		Market:            cfg.Venue.Market,
		Owner:             cfg.Venue.Identity,
		BidsAccount:       cfg.Venue.BidsAccount,
		AsksAccount:       cfg.Venue.AsksAccount,
		EventQueueAccount: cfg.Venue.EventQueueAccount,
		BaseWallet:        cfg.Venue.BaseWallet,
		QuoteWallet:       cfg.Venue.QuoteWallet,
		RequestTimeout:    cfg.RequestTimeout(),
	}, inbox)

	// 5. Settlement Trigger (periodic + poked after fills)
	journal := bootstrap.Journal
	trigger := settle.NewTrigger(client, cfg.SettleInterval(), func(acct domain.SettleAccount) {
		if err := journal.RecordSweep(acct); err != nil {
			slog.Error("Failed to journal sweep", slog.Any("error", err))
		}
	})

	// 6. Quoter & Sequencer (The Hotpath Loop)
	quoter := maker.NewQuoter(client, maker.Config{
		Owner:        owner,
		StandingSize: cfg.StandingLots(),
		Floor:        quant.PriceLots(cfg.Quoting.MinBidFloor),
		Ceiling:      quant.PriceLots(cfg.Quoting.MaxAskCeiling),
		MaxAttempts:  cfg.Quoting.MaxAttempts,
	}, func(fill domain.Fill) {
		if err := journal.RecordFill(fill); err != nil {
			slog.Error("Failed to journal fill", slog.Any("error", err))
		}
		trigger.Poke()
	})

	seq := engine.NewSequencer(engine.Config{
		Owner:     owner,
		Floor:     quant.PriceLots(cfg.Quoting.MinBidFloor),
		Ceiling:   quant.PriceLots(cfg.Quoting.MaxAskCeiling),
		InboxSize: inboxSize,
	}, inbox, client, quoter)

	// 7. Connect, seed state, run
	if err := client.Connect(ctx); err != nil {
		slog.Error("❌ Failed to connect to venue", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Disconnect()
	slog.InfoContext(ctx, "✅ Venue gateway connected", slog.String("url", cfg.Venue.WSURL))

	if err := seq.Init(ctx); err != nil {
		slog.Error("❌ Failed to seed maker state", slog.Any("error", err))
		os.Exit(1)
	}

	go seq.Run(ctx)
	slog.InfoContext(ctx, "✅ Sequencer (Hotpath) started")

	go trigger.Run(ctx)
	slog.InfoContext(ctx, "✅ Settlement trigger started")

	slog.InfoContext(ctx, "✨ Maker fully operational. Press Ctrl+C to exit.",
		slog.String("market", cfg.Venue.Market))

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}

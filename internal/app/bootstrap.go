package app

import (
	"log/slog"

	"maker_go/internal/event"
	"maker_go/internal/infra"
	"maker_go/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Journal *storage.Journal
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, journal)
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping maker...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Journal (DB)
	journalPath := cfg.Journal.Path
	if journalPath == "" {
		journalPath = "maker.db"
	}
	journal, err := storage.NewJournal(journalPath)
	if err != nil {
		return err
	}
	b.Journal = journal
	slog.Info("✅ Fill journal initialized", "path", journalPath)

	// 4. Warm the notification pool before the hotpath starts
	event.Warmup()

	return nil
}

// Close releases bootstrap-owned resources.
func (b *Bootstrap) Close() {
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Error("Failed to close journal", slog.Any("error", err))
		}
	}
}

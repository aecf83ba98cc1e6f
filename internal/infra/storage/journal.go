// Package storage keeps an append-only audit journal of fills and
// settlement sweeps in SQLite. The journal is for audit and analysis;
// live state is always rebuilt from venue snapshots, never from here.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"maker_go/internal/domain"
)

// FillRecord is one applied fill. Seq is the venue event sequence, so a
// replayed batch after reconnect cannot double-journal.
type FillRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Seq       uint64 `gorm:"uniqueIndex"`
	OrderHi   uint64
	OrderLo   uint64
	Side      string
	Qty       int64
	AppliedAt time.Time
}

// SweepRecord is one completed settlement sweep.
type SweepRecord struct {
	ID        uint `gorm:"primaryKey"`
	Account   string
	BaseFree  int64
	QuoteFree int64
	SweptAt   time.Time
}

type Journal struct {
	db *gorm.DB
}

// NewJournal opens (or creates) the SQLite journal at path.
func NewJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.AutoMigrate(&FillRecord{}, &SweepRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}

	return &Journal{db: db}, nil
}

// RecordFill appends a fill. A fill with an already-journaled sequence is
// silently skipped.
func (j *Journal) RecordFill(fill domain.Fill) error {
	rec := FillRecord{
		Seq:       fill.Seq,
		OrderHi:   fill.ID.Hi,
		OrderLo:   fill.ID.Lo,
		Side:      fill.Side.String(),
		Qty:       int64(fill.Qty),
		AppliedAt: time.Now(),
	}
	return j.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// RecordSweep appends one settled account.
func (j *Journal) RecordSweep(acct domain.SettleAccount) error {
	rec := SweepRecord{
		Account:   acct.Key,
		BaseFree:  int64(acct.BaseFree),
		QuoteFree: int64(acct.QuoteFree),
		SweptAt:   time.Now(),
	}
	return j.db.Create(&rec).Error
}

// LastFillSeq returns the highest journaled fill sequence, or zero when
// the journal is empty.
func (j *Journal) LastFillSeq() (uint64, error) {
	var seq *uint64
	err := j.db.Model(&FillRecord{}).Select("max(seq)").Scan(&seq).Error
	if err != nil || seq == nil {
		return 0, err
	}
	return *seq, nil
}

// FillsForOrder returns journaled fills for one order id, oldest first.
func (j *Journal) FillsForOrder(id domain.OrderID) ([]FillRecord, error) {
	var fills []FillRecord
	err := j.db.
		Where("order_hi = ? AND order_lo = ?", id.Hi, id.Lo).
		Order("seq asc").
		Find(&fills).Error
	return fills, err
}

// RecentFills returns the newest n fills.
func (j *Journal) RecentFills(n int) ([]FillRecord, error) {
	var fills []FillRecord
	err := j.db.Order("seq desc").Limit(n).Find(&fills).Error
	return fills, err
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"salesboard/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DefaultRecentLimit applies when the caller asks for zero or fewer rows
	DefaultRecentLimit = 50
	// MaxRecentLimit caps a single Recent query
	MaxRecentLimit = 200
)

// Journal persists webhook delivery outcomes in SQLite.
// It never stores leaderboard counts; those stay in memory.
type Journal struct {
	db *gorm.DB
}

// NewJournal opens (or creates) the journal database at dbPath
func NewJournal(dbPath string) (*Journal, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure Go driver, no cgo
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newJournal(db)
}

func newJournal(db *gorm.DB) (*Journal, error) {
	if err := db.AutoMigrate(&domain.Delivery{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record inserts d, assigning an ID when it has none
func (j *Journal) Record(ctx context.Context, d *domain.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return j.db.WithContext(ctx).Create(d).Error
}

// Recent returns up to limit deliveries, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.Delivery, error) {
	limit = ClampLimit(limit)

	var out []domain.Delivery
	err := j.db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Close releases the underlying connection pool
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ClampLimit maps a requested page size into [1, MaxRecentLimit]
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

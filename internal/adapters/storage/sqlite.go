package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// SQLiteAdapter implements ports.ActivityRepository using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// ActivityModel is the GORM model for journal entries.
type ActivityModel struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"index"`
	Interface  string `gorm:"index"`
	Action     string
	PacketKind string
	Requested  int
	Sent       int
	Replies    int
	Error      string
	Timestamp  time.Time `gorm:"index"`
}

func (ActivityModel) TableName() string { return "activity" }

var _ ports.ActivityRepository = (*SQLiteAdapter)(nil)

// NewSQLiteAdapter opens the database at path and migrates the schema.
// ":memory:" gives a throwaway journal.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("gorm tracing: %w", err)
	}

	if err := db.AutoMigrate(&ActivityModel{}); err != nil {
		return nil, err
	}
	return &SQLiteAdapter{db: db}, nil
}

// SaveActivity appends a record to the journal.
func (a *SQLiteAdapter) SaveActivity(ctx context.Context, rec domain.ActivityRecord) error {
	model := toModel(rec)
	return a.db.WithContext(ctx).Create(&model).Error
}

// ListActivity returns up to limit records, newest first.
func (a *SQLiteAdapter) ListActivity(ctx context.Context, iface string, limit int) ([]domain.ActivityRecord, error) {
	query := a.db.WithContext(ctx).Order("timestamp desc").Order("id desc")
	if iface != "" {
		query = query.Where("interface = ?", iface)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ActivityModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]domain.ActivityRecord, len(models))
	for i, m := range models {
		records[i] = toDomain(m)
	}
	return records, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(r domain.ActivityRecord) ActivityModel {
	return ActivityModel{
		ID:         r.ID,
		RunID:      r.RunID,
		Interface:  r.Interface,
		Action:     string(r.Action),
		PacketKind: string(r.PacketKind),
		Requested:  r.Requested,
		Sent:       r.Sent,
		Replies:    r.Replies,
		Error:      r.Error,
		Timestamp:  r.Timestamp,
	}
}

func toDomain(m ActivityModel) domain.ActivityRecord {
	return domain.ActivityRecord{
		ID:         m.ID,
		RunID:      m.RunID,
		Interface:  m.Interface,
		Action:     domain.ActivityAction(m.Action),
		PacketKind: domain.PacketKind(m.PacketKind),
		Requested:  m.Requested,
		Sent:       m.Sent,
		Replies:    m.Replies,
		Error:      m.Error,
		Timestamp:  m.Timestamp,
	}
}

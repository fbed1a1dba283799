package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientState is one persisted key-value row.
type ClientState struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// GormStore persists client state in Postgres. Durable across restarts,
// unlike the Redis backend it has no TTL; stale sessions are bounded by
// the registry's eviction instead.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the client_states table if missing.
func (g *GormStore) Migrate() error {
	return g.db.AutoMigrate(&ClientState{})
}

func (g *GormStore) Get(ctx context.Context, key string) (string, error) {
	var row ClientState
	err := g.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (g *GormStore) Set(ctx context.Context, key, value string) error {
	row := ClientState{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (g *GormStore) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Delete(&ClientState{}, "key = ?", key).Error
}

// Package remote implements the store gateway on top of PostgreSQL via GORM.
// It is the single choke point for the remote document collections: every
// write stamps updated_at server-side, so concurrent writers resolve by
// last-write-wins on server time.
package remote

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasky/internal/model"
	"tasky/internal/store"
)

type Remote struct {
	db  *gorm.DB
	hub *store.Hub
}

// Open connects to the database and migrates the schema.
func Open(dsn string) (*Remote, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err := db.AutoMigrate(
		&model.List{},
		&model.Task{},
		&model.Invitation{},
		&model.ListPermission{},
		&model.User{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Remote{db: db, hub: store.NewHub()}, nil
}

// NewWithDB wraps an existing connection; used by tests with sqlmock.
func NewWithDB(db *gorm.DB) *Remote {
	return &Remote{db: db, hub: store.NewHub()}
}

func (r *Remote) Watch(c store.Collection, fn func(store.Event)) (cancel func()) {
	return r.hub.Watch(c, fn)
}

func (r *Remote) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// now is the server-assigned timestamp for createdAt/updatedAt stamps.
func now() time.Time {
	return time.Now().UTC()
}

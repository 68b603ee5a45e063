// Package cache keeps a local mirror of lists and tasks in SQLite so reads
// keep working when the remote store is unreachable. The mirror is owned by
// this process and written through from the sync services.
package cache

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"tasky/internal/model"
)

type Cache struct {
	db *gorm.DB
}

// Open opens (or creates) the mirror database at path. Use ":memory:" for
// a throwaway instance in tests.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := db.AutoMigrate(&model.List{}, &model.Task{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PutLists upserts a snapshot of lists into the mirror.
func (c *Cache) PutLists(ctx context.Context, lists []model.List) error {
	if len(lists) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&lists).Error
}

// PutTasks upserts a snapshot of tasks into the mirror.
func (c *Cache) PutTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&tasks).Error
}

// DeleteList removes the list and its tasks from the mirror.
func (c *Cache) DeleteList(ctx context.Context, id string) error {
	if err := c.db.WithContext(ctx).Delete(&model.Task{}, "list_id = ?", id).Error; err != nil {
		return err
	}
	return c.db.WithContext(ctx).Delete(&model.List{}, "id = ?", id).Error
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error
}

func (c *Cache) Lists(ctx context.Context) ([]model.List, error) {
	var lists []model.List
	err := c.db.WithContext(ctx).Order("updated_at DESC").Find(&lists).Error
	return lists, err
}

func (c *Cache) TasksByList(ctx context.Context, listID string) ([]model.Task, error) {
	var tasks []model.Task
	err := c.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("updated_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (c *Cache) TasksDueOn(ctx context.Context, day string) ([]model.Task, error) {
	var tasks []model.Task
	err := c.db.WithContext(ctx).
		Where("due_date = ? AND completed = ?", day, false).
		Order("updated_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (c *Cache) IncompleteCount(ctx context.Context, listID string) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&model.Task{}).
		Where("list_id = ? AND completed = ?", listID, false).
		Count(&n).Error
	return n, err
}

// Clear wipes the mirror; called on sign-out after subscriptions are torn down.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.db.WithContext(ctx).Where("1 = 1").Delete(&model.Task{}).Error; err != nil {
		return err
	}
	return c.db.WithContext(ctx).Where("1 = 1").Delete(&model.List{}).Error
}

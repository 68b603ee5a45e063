package remote

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasky/internal/model"
	"tasky/internal/store"
)

func (r *Remote) CreateTask(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.ListID == "" {
		task.ListID = model.ListInbox
	}
	ts := now()
	task.CreatedAt = ts
	task.UpdatedAt = ts

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionTasks, EntityID: task.ID, ListID: task.ListID})
	return nil
}

func (r *Remote) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *Remote) UpdateTask(ctx context.Context, id string, fields store.Fields) error {
	task, err := r.GetTask(ctx, id)
	if err != nil {
		return err
	}

	clean := fields.Sanitize()
	clean["updated_at"] = now()

	result := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(map[string]any(clean))
	if result.Error != nil {
		return result.Error
	}
	r.hub.Publish(store.Event{Collection: store.CollectionTasks, EntityID: id, ListID: task.ListID})
	return nil
}

// DeleteTask removes a task; deleting a missing id is not an error.
func (r *Remote) DeleteTask(ctx context.Context, id string) error {
	task, err := r.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil
		}
		return err
	}

	if err := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error; err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionTasks, EntityID: id, ListID: task.ListID})
	return nil
}

func (r *Remote) TasksByList(ctx context.Context, listID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("updated_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *Remote) TasksDueOn(ctx context.Context, userID, day string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("created_by = ? AND due_date = ? AND completed = ?", userID, day, false).
		Order("updated_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *Remote) CountIncomplete(ctx context.Context, listID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("list_id = ? AND completed = ?", listID, false).
		Count(&count).Error
	return count, err
}

package remote

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasky/internal/model"
	"tasky/internal/store"
)

func (r *Remote) CreateList(ctx context.Context, list *model.List) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	list.Color = model.NormalizeColor(list.Color)
	if list.SharedWith == nil {
		list.SharedWith = model.Members{}
	}
	ts := now()
	list.CreatedAt = ts
	list.UpdatedAt = ts

	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: list.ID})
	return nil
}

func (r *Remote) GetList(ctx context.Context, id string) (*model.List, error) {
	var list model.List
	if err := r.db.WithContext(ctx).First(&list, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrListNotFound
		}
		return nil, err
	}
	return &list, nil
}

func (r *Remote) UpdateList(ctx context.Context, id string, fields store.Fields) error {
	clean := sanitizeListFields(fields)
	clean["updated_at"] = now()

	result := r.db.WithContext(ctx).Model(&model.List{}).Where("id = ?", id).Updates(map[string]any(clean))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrListNotFound
	}
	r.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: id})
	return nil
}

// DeleteList removes the list, its tasks and its permissions in one
// transaction. No orphan tasks survive.
func (r *Remote) DeleteList(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Task{}, "list_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.ListPermission{}, "list_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.List{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionTasks, ListID: id})
	r.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: id})
	return nil
}

func (r *Remote) ListsOwnedBy(ctx context.Context, userID string) ([]model.List, error) {
	var lists []model.List
	err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("updated_at DESC").
		Find(&lists).Error
	return lists, err
}

func (r *Remote) ListsSharedWith(ctx context.Context, userID string) ([]model.List, error) {
	var lists []model.List
	err := r.db.WithContext(ctx).
		Joins("JOIN list_permissions ON list_permissions.list_id = lists.id").
		Where("list_permissions.user_id = ?", userID).
		Order("lists.updated_at DESC").
		Find(&lists).Error
	return lists, err
}

// ShareList добавляет пользователя в sharedWith списка и создаёт запись
// о роли. Повторный вызов не создаёт дубликатов.
func (r *Remote) ShareList(ctx context.Context, listID, userID string, role model.Role) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return shareListTx(tx, listID, userID, role)
	})
	if err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: listID})
	r.hub.Publish(store.Event{Collection: store.CollectionPermissions, EntityID: listID, ListID: listID})
	return nil
}

func shareListTx(tx *gorm.DB, listID, userID string, role model.Role) error {
	var list model.List
	if err := tx.First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ErrListNotFound
		}
		return err
	}

	// Владельца в sharedWith не добавляем
	if list.CreatedBy != userID && !list.SharedWith.Contains(userID) {
		list.SharedWith = list.SharedWith.Add(userID)
		list.UpdatedAt = now()
		if err := tx.Save(&list).Error; err != nil {
			return err
		}
	}

	var existing model.ListPermission
	err := tx.Where("list_id = ? AND user_id = ?", listID, userID).First(&existing).Error
	if err == nil {
		existing.Role = role
		return tx.Save(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return tx.Create(&model.ListPermission{
		ID:        uuid.NewString(),
		ListID:    listID,
		UserID:    userID,
		Role:      role,
		GrantedAt: now(),
	}).Error
}

func (r *Remote) HasListAccess(ctx context.Context, listID, userID string) (bool, error) {
	list, err := r.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return false, nil
		}
		return false, err
	}
	if list.CreatedBy == userID {
		return true, nil
	}
	return list.SharedWith.Contains(userID), nil
}

func (r *Remote) RoleFor(ctx context.Context, listID, userID string) (model.Role, error) {
	list, err := r.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return "", nil
		}
		return "", err
	}
	if list.CreatedBy == userID {
		return model.RoleEditor, nil
	}

	var perm model.ListPermission
	err = r.db.WithContext(ctx).Where("list_id = ? AND user_id = ?", listID, userID).First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return perm.Role, nil
}

// sanitizeListFields strips absent values and serializes sharedWith the same
// way the GORM field serializer would, since map updates bypass it.
func sanitizeListFields(fields store.Fields) store.Fields {
	clean := fields.Sanitize()
	if members, ok := clean[store.FieldSharedWith].(model.Members); ok {
		raw, err := json.Marshal(members)
		if err == nil {
			clean[store.FieldSharedWith] = string(raw)
		}
	}
	if color, ok := clean[store.FieldColor].(string); ok {
		clean[store.FieldColor] = model.NormalizeColor(color)
	}
	return clean
}

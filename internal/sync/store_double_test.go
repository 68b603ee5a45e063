package sync_test

import (
	"context"
	"errors"

	"tasky/internal/model"
	"tasky/internal/store"
)

var errStoreDown = errors.New("store unreachable")

// flakyStore оборачивает настоящее хранилище и по флагам роняет отдельные
// операции, имитируя потерю связи с удалённым стором.
type flakyStore struct {
	store.Store

	failReads       bool // ListsOwnedBy / TasksByList / TasksDueOn
	failOrderWrites bool // UpdateTask с sort_order
}

func (f *flakyStore) ListsOwnedBy(ctx context.Context, userID string) ([]model.List, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return f.Store.ListsOwnedBy(ctx, userID)
}

func (f *flakyStore) TasksByList(ctx context.Context, listID string) ([]model.Task, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return f.Store.TasksByList(ctx, listID)
}

func (f *flakyStore) TasksDueOn(ctx context.Context, userID, day string) ([]model.Task, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return f.Store.TasksDueOn(ctx, userID, day)
}

func (f *flakyStore) UpdateTask(ctx context.Context, id string, fields store.Fields) error {
	if f.failOrderWrites {
		if _, ok := fields[store.FieldOrder]; ok {
			return errStoreDown
		}
	}
	return f.Store.UpdateTask(ctx, id, fields)
}

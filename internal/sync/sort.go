package sync

import (
	"sort"

	"tasky/internal/model"
)

// SortTasks returns the tasks in the order the UI shows them:
//
//  1. незавершённые раньше завершённых;
//  2. по возрастанию order, если он есть у обеих;
//  3. задача с order раньше задачи без него;
//  4. по убыванию приоритета;
//  5. по убыванию updatedAt (свежие выше).
//
// Сортировка стабильная: равные элементы сохраняют исходный порядок.
func SortTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]

		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.HasOrder() && b.HasOrder() {
			if a.OrderValue() != b.OrderValue() {
				return a.OrderValue() < b.OrderValue()
			}
			return false
		}
		if a.HasOrder() != b.HasOrder() {
			return a.HasOrder()
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return out
}

// NextOrder returns the order value for a task appended to the given
// siblings: max existing order + 1, or 0 when no sibling carries one.
func NextOrder(siblings []model.Task) int {
	next := 0
	for i := range siblings {
		if siblings[i].HasOrder() && siblings[i].OrderValue()+1 > next {
			next = siblings[i].OrderValue() + 1
		}
	}
	return next
}

package sync

import (
	"tasky/internal/model"
)

// PlanMove применяет перетаскивание (source → dest) к отображаемому срезу
// задач и возвращает новый порядок с переписанными order-значениями.
// ok=false означает, что писать ничего не нужно: отменённый drop
// (dest < 0), выход за границы или бросок на то же место.
func PlanMove(tasks []model.Task, source, dest int) (reordered []model.Task, ok bool) {
	if dest < 0 || source < 0 || source >= len(tasks) || dest >= len(tasks) {
		return nil, false
	}
	if source == dest {
		return nil, false
	}
	return Reindex(Move(tasks, source, dest)), true
}

// Move relocates the element at source to dest; every other element shifts
// by at most one position. The input slice is not modified.
func Move(tasks []model.Task, source, dest int) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	out = append(out, tasks[:source]...)
	out = append(out, tasks[source+1:]...)

	moved := tasks[source]
	out = append(out, model.Task{})
	copy(out[dest+1:], out[dest:])
	out[dest] = moved
	return out
}

// Reindex assigns order = position to every task: 0-based, contiguous, no
// gaps. Repeated reorders therefore never grow the order values beyond n-1.
func Reindex(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i]
		order := i
		out[i].Order = &order
	}
	return out
}

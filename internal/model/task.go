package model

import (
	"time"
)

type Priority int

const (
	PriorityLow    Priority = 0
	PriorityMedium Priority = 1
	PriorityHigh   Priority = 2
)

// ListInbox — псевдо-список для задач, созданных без явного списка.
const ListInbox = "default"

type Task struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ListID     string    `gorm:"not null;index" json:"listId"`
	Title      string    `gorm:"not null" json:"title"`
	Notes      string    `json:"notes,omitempty"`
	DueDate    *string   `gorm:"index" json:"dueDate,omitempty"` // ISO date, YYYY-MM-DD
	Priority   Priority  `gorm:"not null;default:0" json:"priority"`
	Completed  bool      `gorm:"not null;default:false" json:"completed"`
	Order      *int      `gorm:"column:sort_order" json:"order,omitempty"`
	CreatedBy  string    `gorm:"not null;index" json:"createdBy"`
	AssignedTo string    `json:"assignedTo,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasOrder reports whether the task carries a manual position.
func (t *Task) HasOrder() bool {
	return t.Order != nil
}

// OrderValue returns the manual position, valid only when HasOrder is true.
func (t *Task) OrderValue() int {
	if t.Order == nil {
		return 0
	}
	return *t.Order
}

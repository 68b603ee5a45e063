package model

import (
	"time"
)

// ListPermission представляет связь между пользователем и списком
type ListPermission struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ListID    string    `gorm:"not null;index" json:"listId"`
	UserID    string    `gorm:"not null;index" json:"userId"`
	Role      Role      `gorm:"not null" json:"role"`
	GrantedAt time.Time `json:"grantedAt"`
}

type Role string

// Роли пользователей для списка
const (
	RoleViewer Role = "viewer" // может только просматривать
	RoleEditor Role = "editor" // может редактировать
)

// CanEdit reports whether the role allows mutations.
func (r Role) CanEdit() bool {
	return r == RoleEditor
}

package model

import (
	"time"
)

// User — профиль, который отдаёт внешний провайдер аутентификации.
// Пароли и регистрация живут снаружи, здесь только идентичность.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

package model

import (
	"time"
)

type List struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Color      string    `json:"color,omitempty"`
	CreatedBy  string    `gorm:"not null;index" json:"createdBy"`
	SharedWith Members   `gorm:"serializer:json" json:"sharedWith"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Members — набор идентификаторов пользователей, которым открыт доступ к списку.
// Владелец в набор не входит.
type Members []string

func (m Members) Contains(userID string) bool {
	for _, id := range m {
		if id == userID {
			return true
		}
	}
	return false
}

// Add returns the set with userID included, without duplicates.
func (m Members) Add(userID string) Members {
	if m.Contains(userID) {
		return m
	}
	return append(m, userID)
}

// Фиксированная палитра тем для списков
var ListColors = []string{
	"blue",
	"green",
	"red",
	"yellow",
	"purple",
	"pink",
	"indigo",
	"gray",
}

const DefaultListColor = "blue"

// NormalizeColor maps an unknown or empty color tag to the default.
func NormalizeColor(color string) string {
	for _, c := range ListColors {
		if c == color {
			return c
		}
	}
	return DefaultListColor
}

package model

import (
	"time"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Invitation представляет приглашение пользователя к списку.
// Статус монотонный: из accepted/rejected возврата в pending нет.
type Invitation struct {
	ID            string           `gorm:"primaryKey" json:"id"`
	ListID        string           `gorm:"not null;index" json:"listId"`
	InviterUserID string           `gorm:"not null" json:"inviterUserId"`
	InviteeEmail  string           `gorm:"not null;index" json:"inviteeEmail"`
	Status        InvitationStatus `gorm:"not null;default:pending" json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Resolved reports whether the invitation reached a terminal state.
func (i *Invitation) Resolved() bool {
	return i.Status == InvitationAccepted || i.Status == InvitationRejected
}

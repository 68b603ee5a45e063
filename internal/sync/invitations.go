package sync

import (
	"context"
	"fmt"
	"strings"

	"tasky/internal/model"
	"tasky/internal/store"
)

// InvitationService управляет жизненным циклом приглашений:
// pending → accepted / rejected, терминальные статусы не меняются.
type InvitationService struct {
	store  store.Store
	userID string
	email  string
}

func NewInvitationService(st store.Store, userID, email string) *InvitationService {
	return &InvitationService{store: st, userID: userID, email: email}
}

// Create sends an invitation. Only a user with access to the list may
// invite; the invitee does not need an account yet — matching happens by
// email at acceptance time.
func (s *InvitationService) Create(ctx context.Context, listID, inviteeEmail string) (*model.Invitation, error) {
	if s.userID == "" {
		return nil, ErrNotAuthenticated
	}
	inviteeEmail = strings.TrimSpace(inviteeEmail)
	if inviteeEmail == "" || !strings.Contains(inviteeEmail, "@") {
		return nil, fmt.Errorf("invalid invitee email %q", inviteeEmail)
	}

	ok, err := s.store.HasListAccess(ctx, listID, s.userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrForbidden
	}

	inv := &model.Invitation{
		ListID:        listID,
		InviterUserID: s.userID,
		InviteeEmail:  inviteeEmail,
		Status:        model.InvitationPending,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return inv, nil
}

// Pending lists open invitations addressed to the current user's email.
func (s *InvitationService) Pending(ctx context.Context) ([]model.Invitation, error) {
	if s.userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.store.PendingInvitations(ctx, s.email)
}

// Accept принимает приглашение и выдаёт доступ к списку одной операцией
// хранилища. Повторный Accept того же приглашения возвращает
// store.ErrInvitationResolved, дубликата в sharedWith не появляется.
func (s *InvitationService) Accept(ctx context.Context, invitationID string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	return s.store.AcceptInvitation(ctx, invitationID, s.userID)
}

// Reject declines an invitation; no further side effects.
func (s *InvitationService) Reject(ctx context.Context, invitationID string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	return s.store.RejectInvitation(ctx, invitationID)
}

// Notification builds the push payload shown to the invitee for an
// invitation; clicking it routes the client to the invitations screen.
func (s *InvitationService) Notification(inv *model.Invitation, listName string) model.PushPayload {
	return model.PushPayload{
		Title:    "Приглашение в список",
		Body:     fmt.Sprintf("Вас пригласили в список «%s»", listName),
		Icon:     "/icons/icon-192.png",
		Badge:    "/icons/badge-72.png",
		URL:      "/invitations",
		ActionID: inv.ID,
		Actions: []model.NotificationAction{
			{Action: "accept", Title: "Принять"},
			{Action: "reject", Title: "Отклонить"},
		},
	}
}

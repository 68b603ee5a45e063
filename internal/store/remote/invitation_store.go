package remote

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasky/internal/model"
	"tasky/internal/store"
)

func (r *Remote) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = model.InvitationPending
	}
	inv.CreatedAt = now()

	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionInvitations, EntityID: inv.ID, ListID: inv.ListID})
	return nil
}

func (r *Remote) GetInvitation(ctx context.Context, id string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *Remote) PendingInvitations(ctx context.Context, email string) ([]model.Invitation, error) {
	var invs []model.Invitation
	err := r.db.WithContext(ctx).
		Where("invitee_email = ? AND status = ?", email, model.InvitationPending).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

// AcceptInvitation переводит приглашение в accepted и выдаёт доступ к списку
// одной транзакцией. Приглашение не «теряется»: либо оба шага, либо ни одного.
func (r *Remote) AcceptInvitation(ctx context.Context, invitationID, userID string) error {
	var listID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.Invitation
		if err := tx.First(&inv, "id = ?", invitationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrInvitationNotFound
			}
			return err
		}
		if inv.Resolved() {
			return store.ErrInvitationResolved
		}

		// Приглашение действительно, только если пригласивший всё ещё
		// имеет доступ к списку.
		var list model.List
		if err := tx.First(&list, "id = ?", inv.ListID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrListNotFound
			}
			return err
		}
		if list.CreatedBy != inv.InviterUserID && !list.SharedWith.Contains(inv.InviterUserID) {
			return store.ErrForbidden
		}

		if err := tx.Model(&model.Invitation{}).
			Where("id = ?", invitationID).
			Update("status", model.InvitationAccepted).Error; err != nil {
			return err
		}

		listID = inv.ListID
		return shareListTx(tx, inv.ListID, userID, model.RoleEditor)
	})
	if err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionInvitations, EntityID: invitationID, ListID: listID})
	r.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: listID})
	return nil
}

func (r *Remote) RejectInvitation(ctx context.Context, invitationID string) error {
	inv, err := r.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.Resolved() {
		return store.ErrInvitationResolved
	}

	if err := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("id = ?", invitationID).
		Update("status", model.InvitationRejected).Error; err != nil {
		return err
	}
	r.hub.Publish(store.Event{Collection: store.CollectionInvitations, EntityID: invitationID, ListID: inv.ListID})
	return nil
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
)

// createInvitation records a pending invitation unless one is already open
// for the same trip and email.
func createInvitation(tx *gorm.DB, tripID, invitedBy uuid.UUID, email string) error {
	var existing int64
	if err := tx.Model(&models.Invitation{}).
		Where("trip_id = ? AND email = ? AND status = ?", tripID, email, models.InvitationPending).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("check invitation: %w", err)
	}
	if existing > 0 {
		logger.L().Debug("invitation already pending", zap.String("trip_id", tripID.String()), zap.String("email", email))
		return nil
	}
	if err := tx.Create(&models.Invitation{
		TripID:    tripID,
		InvitedBy: invitedBy,
		Email:     email,
		Status:    models.InvitationPending,
	}).Error; err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// AcceptInvitations joins a newly registered user to every trip that has a
// pending invitation for their email. It returns the trips joined.
func (s *TripService) AcceptInvitations(ctx context.Context, user models.User) ([]uuid.UUID, error) {
	var joined []uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitations []models.Invitation
		if err := tx.Preload("Trip").
			Where("email = ? AND status = ?", normalizeEmail(user.Email), models.InvitationPending).
			Find(&invitations).Error; err != nil {
			return fmt.Errorf("load invitations: %w", err)
		}

		for _, inv := range invitations {
			if err := tx.Where(models.TripMember{TripID: inv.TripID, UserID: user.ID}).
				Attrs(models.TripMember{Role: models.RoleMember}).
				FirstOrCreate(&models.TripMember{}).Error; err != nil {
				return fmt.Errorf("join trip %s: %w", inv.TripID, err)
			}
			if err := tx.Model(&models.Invitation{}).Where("id = ?", inv.ID).
				Update("status", models.InvitationAccepted).Error; err != nil {
				return fmt.Errorf("accept invitation: %w", err)
			}
			if err := logActivity(tx, inv.TripID, user.ID, models.ActivityMemberJoined, user.ID,
				fmt.Sprintf("%s joined %s", user.Name, inv.Trip.Name)); err != nil {
				return err
			}
			joined = append(joined, inv.TripID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, tripID := range joined {
		s.cache.Invalidate(ctx, tripID)
	}
	if len(joined) > 0 {
		logger.L().Info("accepted pending invitations", zap.String("user_id", user.ID.String()), zap.Int("trips", len(joined)))
	}
	return joined, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// TripService owns trips and their rosters. Every roster change invalidates
// the trip's cached ledger, since balances list every member.
type TripService struct {
	db       *gorm.DB
	cache    *ReportCache
	notifier Notifier
}

func (s *TripService) Create(ctx context.Context, actorID uuid.UUID, req models.CreateTripRequest) (*models.Trip, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	currency := req.BaseCurrency
	if currency == "" {
		currency = "CNY"
	}
	if !models.IsSupportedCurrency(currency) {
		return nil, invalid("base_currency", "unsupported currency %q", currency)
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, invalid("start_date", "expected YYYY-MM-DD")
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, invalid("end_date", "expected YYYY-MM-DD")
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, invalid("end_date", "is before start_date")
	}

	trip := models.Trip{
		Name:         name,
		Destination:  strings.TrimSpace(req.Destination),
		StartDate:    start,
		EndDate:      end,
		BaseCurrency: currency,
		CreatedBy:    actorID,
	}

	var creator models.User
	var invites []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&creator, "id = ?", actorID).Error; err != nil {
			return fmt.Errorf("load creator: %w", err)
		}
		if err := tx.Create(&trip).Error; err != nil {
			return fmt.Errorf("create trip: %w", err)
		}
		if err := tx.Create(&models.TripMember{TripID: trip.ID, UserID: actorID, Role: models.RoleOwner}).Error; err != nil {
			return fmt.Errorf("add owner: %w", err)
		}

		for _, ref := range req.Members {
			user, err := findUser(tx, ref)
			if errors.Is(err, ErrNotFound) && strings.Contains(ref, "@") {
				invites = append(invites, normalizeEmail(ref))
				continue
			}
			if errors.Is(err, ErrNotFound) {
				return invalid("members", "unknown member %q", ref)
			}
			if err != nil {
				return err
			}
			if user.ID == actorID {
				continue
			}
			if err := tx.Where(models.TripMember{TripID: trip.ID, UserID: user.ID}).
				Attrs(models.TripMember{Role: models.RoleMember}).
				FirstOrCreate(&models.TripMember{}).Error; err != nil {
				return fmt.Errorf("add member: %w", err)
			}
		}

		for _, email := range invites {
			if err := createInvitation(tx, trip.ID, actorID, email); err != nil {
				return err
			}
		}
		return logActivity(tx, trip.ID, actorID, models.ActivityTripCreated, trip.ID,
			fmt.Sprintf("%s created trip \"%s\"", creator.Name, trip.Name))
	})
	if err != nil {
		return nil, err
	}

	for _, email := range invites {
		email := email
		background(ctx, "invite", func(ctx context.Context) {
			s.notifier.Invited(ctx, email, creator.Name, trip.Name)
		})
	}
	logger.L().Info("trip created", zap.String("trip_id", trip.ID.String()), zap.Int("invites", len(invites)))
	return s.Get(ctx, trip.ID, actorID)
}

// Get returns a trip with its roster. The caller must be a member.
func (s *TripService) Get(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error) {
	return membership(s.db.WithContext(ctx), tripID, userID)
}

// RequireMember returns ErrNotFound or ErrNotMember unless userID is on the
// trip's roster.
func (s *TripService) RequireMember(ctx context.Context, tripID, userID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TripMember{}).
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Select("id").First(&models.Trip{}, "id = ?", tripID).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	return ErrNotMember
}

func (s *TripService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	var trips []models.Trip
	mine := s.db.Model(&models.TripMember{}).Select("trip_id").Where("user_id = ?", userID)
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at, user_id") }).
		Preload("Members.User").
		Where("id IN (?)", mine).
		Order("start_date DESC NULLS LAST, created_at DESC").
		Find(&trips).Error
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

// AddMember adds a registered user by id or email. An unknown email gets an
// invitation instead and invited is true.
func (s *TripService) AddMember(ctx context.Context, tripID, actorID uuid.UUID, req models.AddMemberRequest) (member *models.User, invited bool, err error) {
	ref := strings.TrimSpace(req.UserID)
	if ref == "" {
		ref = strings.TrimSpace(req.Email)
	}
	if ref == "" {
		return nil, false, invalid("", "user_id or email required")
	}

	var trip *models.Trip
	var actor models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if trip, err = membership(tx, tripID, actorID); err != nil {
			return err
		}
		actor = findMember(trip, actorID).User

		user, err := findUser(tx, ref)
		if errors.Is(err, ErrNotFound) && strings.Contains(ref, "@") {
			invited = true
			return createInvitation(tx, tripID, actorID, normalizeEmail(ref))
		}
		if err != nil {
			return err
		}
		if findMember(trip, user.ID) != nil {
			return fmt.Errorf("%s is already on this trip: %w", user.Name, ErrConflict)
		}
		if err := tx.Create(&models.TripMember{TripID: tripID, UserID: user.ID, Role: models.RoleMember}).Error; err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		member = user
		return logActivity(tx, tripID, actorID, models.ActivityMemberJoined, user.ID,
			fmt.Sprintf("%s added %s to %s", actor.Name, user.Name, trip.Name))
	})
	if err != nil {
		return nil, false, err
	}

	if invited {
		background(ctx, "invite", func(ctx context.Context) {
			s.notifier.Invited(ctx, normalizeEmail(ref), actor.Name, trip.Name)
		})
		return nil, true, nil
	}

	s.cache.Invalidate(ctx, tripID)
	t, added := *trip, *member
	background(ctx, "member-added", func(ctx context.Context) {
		s.notifier.MemberAdded(ctx, t, actor, added)
	})
	return member, false, nil
}

// RemoveMember takes a member off the roster. Only the owner may remove
// someone else. A member who paid for or shares in any expense stays, since
// the ledger needs them to balance.
func (s *TripService) RemoveMember(ctx context.Context, tripID, actorID, memberID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trip, err := membership(tx, tripID, actorID)
		if err != nil {
			return err
		}
		actor := findMember(trip, actorID)
		target := findMember(trip, memberID)
		if target == nil {
			return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
		}
		if actorID != memberID && actor.Role != models.RoleOwner {
			return fmt.Errorf("only the trip owner can remove other members: %w", ErrForbidden)
		}
		if target.Role == models.RoleOwner {
			return fmt.Errorf("the trip owner cannot leave: %w", ErrConflict)
		}

		var refs int64
		tripExpenses := tx.Model(&models.Expense{}).Select("id").Where("trip_id = ?", tripID)
		if err := tx.Model(&models.ExpenseShare{}).
			Where("user_id = ? AND expense_id IN (?)", memberID, tripExpenses).
			Count(&refs).Error; err != nil {
			return fmt.Errorf("count shares: %w", err)
		}
		if refs == 0 {
			if err := tx.Model(&models.Expense{}).
				Where("trip_id = ? AND paid_by = ?", tripID, memberID).
				Count(&refs).Error; err != nil {
				return fmt.Errorf("count payments: %w", err)
			}
		}
		if refs > 0 {
			return fmt.Errorf("%s still appears in trip expenses: %w", target.User.Name, ErrConflict)
		}

		if err := tx.Where("trip_id = ? AND user_id = ?", tripID, memberID).Delete(&models.TripMember{}).Error; err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		return logActivity(tx, tripID, actorID, models.ActivityMemberLeft, memberID,
			fmt.Sprintf("%s left %s", target.User.Name, trip.Name))
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, tripID)
	return nil
}

// findUser resolves a user id or an email address.
func findUser(tx *gorm.DB, ref string) (*models.User, error) {
	var user models.User
	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		err = tx.First(&user, "id = ?", id).Error
	} else {
		err = tx.First(&user, "email = ?", normalizeEmail(ref)).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

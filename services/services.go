package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
)

// Services bundles the application services the HTTP layer calls.
type Services struct {
	Trips     *TripService
	Itinerary *ItineraryService
	Expenses  *ExpenseService
	Ledger    *LedgerService
	Activity  *ActivityService
}

func New(db *gorm.DB, cache *ReportCache, notifier Notifier) *Services {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Services{
		Trips:     &TripService{db: db, cache: cache, notifier: notifier},
		Itinerary: &ItineraryService{db: db},
		Expenses:  &ExpenseService{db: db, cache: cache, notifier: notifier},
		Ledger:    NewLedgerService(db, cache),
		Activity:  &ActivityService{db: db},
	}
}

type nopNotifier struct{}

func (nopNotifier) ExpenseAdded(context.Context, ExpenseNotice) {}
func (nopNotifier) MemberAdded(context.Context, models.Trip, models.User, models.User) {}
func (nopNotifier) Invited(context.Context, string, string, string) {}

// background runs f detached from the request so a slow mail or push provider
// never holds up the response.
func background(ctx context.Context, name string, f func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.L().Error("background task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		f(ctx)
	}()
}

// membership loads the roster of a trip and checks that userID is on it.
func membership(tx *gorm.DB, tripID, userID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := tx.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at, user_id")
	}).Preload("Members.User").First(&trip, "id = ?", tripID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if findMember(&trip, userID) == nil {
		return nil, ErrNotMember
	}
	return &trip, nil
}

func findMember(trip *models.Trip, userID uuid.UUID) *models.TripMember {
	for i := range trip.Members {
		if trip.Members[i].UserID == userID {
			return &trip.Members[i]
		}
	}
	return nil
}

func logActivity(tx *gorm.DB, tripID, userID uuid.UUID, kind string, ref uuid.UUID, description string) error {
	err := tx.Create(&models.Activity{
		TripID:      tripID,
		UserID:      userID,
		Type:        kind,
		ReferenceID: ref,
		Description: description,
	}).Error
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/ledger"
	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// ExpenseService writes expenses. An expense and its shares are always
// written together in one transaction, so a ledger snapshot never sees an
// expense without its shares.
type ExpenseService struct {
	db       *gorm.DB
	cache    *ReportCache
	notifier Notifier
}

func (s *ExpenseService) Create(ctx context.Context, tripID, actorID uuid.UUID, req models.ExpenseRequest) (*models.Expense, error) {
	var expense *models.Expense
	var trip *models.Trip
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if trip, err = membership(tx, tripID, actorID); err != nil {
			return err
		}
		var shares []models.ExpenseShare
		if expense, shares, err = prepare(tx, trip, req); err != nil {
			return err
		}
		expense.CreatedBy = actorID

		if err := tx.Omit("Shares", "Payer").Create(expense).Error; err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		if err := insertShares(tx, expense.ID, shares); err != nil {
			return err
		}
		actor := findMember(trip, actorID).User
		return logActivity(tx, tripID, actorID, models.ActivityExpenseAdded, expense.ID,
			fmt.Sprintf("%s added \"%s\" (%s %s)", actor.Name, expense.Title, expense.Currency, utils.FormatAmount(expense.TotalAmount)))
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, tripID)

	created, err := s.Get(ctx, expense.ID, actorID)
	if err != nil {
		return nil, err
	}
	s.notifyAdded(ctx, *trip, *created)
	logger.L().Info("expense created",
		zap.String("trip_id", tripID.String()),
		zap.String("expense_id", created.ID.String()),
		zap.String("currency", created.Currency),
		zap.String("total", utils.FormatAmount(created.TotalAmount)))
	return created, nil
}

// Update replaces every field of the expense and all of its shares.
func (s *ExpenseService) Update(ctx context.Context, expenseID, actorID uuid.UUID, req models.ExpenseRequest) (*models.Expense, error) {
	var tripID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadExpense(tx, expenseID)
		if err != nil {
			return err
		}
		tripID = current.TripID
		trip, err := membership(tx, tripID, actorID)
		if err != nil {
			return err
		}
		next, shares, err := prepare(tx, trip, req)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Expense{}).Where("id = ?", expenseID).Updates(map[string]interface{}{
			"itinerary_item_id": next.ItineraryItemID,
			"title":             next.Title,
			"event_time":        next.EventTime,
			"currency":          next.Currency,
			"total_amount":      next.TotalAmount,
			"paid_by":           next.PaidBy,
			"split_type":        next.SplitType,
			"updated_at":        time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		if err := tx.Where("expense_id = ?", expenseID).Delete(&models.ExpenseShare{}).Error; err != nil {
			return fmt.Errorf("delete shares: %w", err)
		}
		if err := insertShares(tx, expenseID, shares); err != nil {
			return err
		}
		actor := findMember(trip, actorID).User
		return logActivity(tx, tripID, actorID, models.ActivityExpenseUpdated, expenseID,
			fmt.Sprintf("%s updated \"%s\"", actor.Name, next.Title))
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, tripID)
	return s.Get(ctx, expenseID, actorID)
}

func (s *ExpenseService) Delete(ctx context.Context, expenseID, actorID uuid.UUID) error {
	var tripID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expense, err := loadExpense(tx, expenseID)
		if err != nil {
			return err
		}
		tripID = expense.TripID
		trip, err := membership(tx, tripID, actorID)
		if err != nil {
			return err
		}

		if err := tx.Where("expense_id = ?", expenseID).Delete(&models.ExpenseShare{}).Error; err != nil {
			return fmt.Errorf("delete shares: %w", err)
		}
		if err := tx.Delete(&models.Expense{}, "id = ?", expenseID).Error; err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		actor := findMember(trip, actorID).User
		return logActivity(tx, tripID, actorID, models.ActivityExpenseDeleted, expenseID,
			fmt.Sprintf("%s deleted \"%s\" (%s %s)", actor.Name, expense.Title, expense.Currency, utils.FormatAmount(expense.TotalAmount)))
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, tripID)
	return nil
}

// Get returns an expense with payer and shares. The caller must be a member
// of the expense's trip.
func (s *ExpenseService) Get(ctx context.Context, expenseID, userID uuid.UUID) (*models.Expense, error) {
	db := s.db.WithContext(ctx)
	var expense models.Expense
	err := db.Preload("Payer").
		Preload("Shares", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, user_id") }).
		Preload("Shares.User").
		First(&expense, "id = ?", expenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load expense: %w", err)
	}
	if _, err := membership(db, expense.TripID, userID); err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns a page of a trip's expenses in the order they happened.
func (s *ExpenseService) List(ctx context.Context, tripID uuid.UUID, page utils.PaginationQuery) ([]models.Expense, error) {
	page.Normalize()
	var expenses []models.Expense
	err := s.db.WithContext(ctx).
		Preload("Payer").
		Preload("Shares", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, user_id") }).
		Preload("Shares.User").
		Where("trip_id = ?", tripID).
		Order("event_time DESC NULLS LAST, created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// prepare validates a request against the trip roster and allocates shares.
func prepare(tx *gorm.DB, trip *models.Trip, req models.ExpenseRequest) (*models.Expense, []models.ExpenseShare, error) {
	if !models.IsSupportedCurrency(req.Currency) {
		return nil, nil, invalid("currency", "unsupported currency %q", req.Currency)
	}

	payerID, err := uuid.Parse(req.PaidBy)
	if err != nil {
		return nil, nil, invalid("paid_by", "invalid user id")
	}
	if findMember(trip, payerID) == nil {
		return nil, nil, invalid("paid_by", "payer is not a member of this trip")
	}

	expense := &models.Expense{
		TripID:      trip.ID,
		Title:       strings.TrimSpace(req.Title),
		Currency:    req.Currency,
		TotalAmount: ledger.Round(req.TotalAmount),
		PaidBy:      payerID,
		SplitType:   req.SplitType,
	}
	if expense.EventTime, err = utils.ParseEventTime(req.EventTime); err != nil {
		return nil, nil, invalid("event_time", "expected RFC 3339 or YYYY-MM-DDTHH:MM")
	}

	if req.ItineraryItemID != "" {
		itemID, err := uuid.Parse(req.ItineraryItemID)
		if err != nil {
			return nil, nil, invalid("itinerary_item_id", "invalid id")
		}
		var item models.ItineraryItem
		err = tx.First(&item, "id = ? AND trip_id = ?", itemID, trip.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, invalid("itinerary_item_id", "no such item on this trip")
		}
		if err != nil {
			return nil, nil, fmt.Errorf("load itinerary item: %w", err)
		}
		expense.ItineraryItemID = &item.ID
		if expense.Title == "" {
			expense.Title = item.Title
		}
		if expense.EventTime == nil {
			if at, ok := item.DefaultEventTime(); ok {
				expense.EventTime = &at
			}
		}
	}
	if expense.Title == "" {
		return nil, nil, invalid("title", "is required")
	}

	kind := ledger.SplitKind(req.SplitType)
	if !kind.Valid() {
		return nil, nil, invalid("split_type", "must be even or custom")
	}

	var custom map[string]decimal.Decimal
	if len(req.CustomAmounts) > 0 {
		custom = make(map[string]decimal.Decimal, len(req.CustomAmounts))
		for k, v := range req.CustomAmounts {
			id, err := uuid.Parse(k)
			if err != nil {
				return nil, nil, invalid("custom_amounts", "invalid user id %q", k)
			}
			if kind == ledger.SplitCustom && len(req.Participants) == 0 && findMember(trip, id) == nil {
				return nil, nil, invalid("custom_amounts", "%s is not a member of this trip", k)
			}
			custom[id.String()] = v
		}
	}

	participants := defaultParticipants(trip, kind, req.Participants, custom)
	participantIDs := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, nil, invalid("participants", "invalid user id %q", p)
		}
		if findMember(trip, id) == nil {
			return nil, nil, invalid("participants", "%s is not a member of this trip", p)
		}
		participantIDs[i] = id
		participants[i] = id.String()
	}

	allocated, err := ledger.AllocateShares(req.TotalAmount, kind, participants, custom)
	if err != nil {
		return nil, nil, err
	}
	shares := make([]models.ExpenseShare, len(allocated))
	for i, a := range allocated {
		shares[i] = models.ExpenseShare{UserID: participantIDs[i], Amount: a.Amount}
	}
	return expense, shares, nil
}

// defaultParticipants returns the explicit selection when there is one.
// Otherwise a custom split covers the members it names amounts for and an even
// split covers the whole roster, both in roster order.
func defaultParticipants(trip *models.Trip, kind ledger.SplitKind, selected []string, custom map[string]decimal.Decimal) []string {
	if len(selected) > 0 {
		return append([]string(nil), selected...)
	}
	var out []string
	for _, m := range trip.Members {
		id := m.UserID.String()
		if kind == ledger.SplitCustom {
			if _, ok := custom[id]; !ok {
				continue
			}
		}
		out = append(out, id)
	}
	return out
}

func insertShares(tx *gorm.DB, expenseID uuid.UUID, shares []models.ExpenseShare) error {
	for i := range shares {
		shares[i].ExpenseID = expenseID
	}
	if err := tx.Omit("User").Create(&shares).Error; err != nil {
		return fmt.Errorf("create shares: %w", err)
	}
	return nil
}

func loadExpense(tx *gorm.DB, expenseID uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	err := tx.First(&expense, "id = ?", expenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load expense: %w", err)
	}
	return &expense, nil
}

func (s *ExpenseService) notifyAdded(ctx context.Context, trip models.Trip, expense models.Expense) {
	notice := ExpenseNotice{Trip: trip, Expense: expense, Payer: expense.Payer}
	for _, sh := range expense.Shares {
		notice.Owers = append(notice.Owers, Ower{User: sh.User, Amount: sh.Amount})
	}
	background(ctx, "expense-added", func(ctx context.Context) {
		s.notifier.ExpenseAdded(ctx, notice)
	})
}

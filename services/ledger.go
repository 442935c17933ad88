package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/ledger"
	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
)

// LedgerService computes balances and settle-up plans from a consistent
// snapshot of one trip.
type LedgerService struct {
	db    *gorm.DB
	cache *ReportCache
	now   func() time.Time
}

func NewLedgerService(db *gorm.DB, cache *ReportCache) *LedgerService {
	return &LedgerService{db: db, cache: cache, now: time.Now}
}

// Snapshot is everything the ledger needs for one trip, read in one
// transaction.
type Snapshot struct {
	Members  []models.TripMember
	Expenses []models.Expense
	Shares   []models.ExpenseShare
}

// TripLedger returns the computed ledger for a trip, from cache when the trip
// has not been written since it was computed.
func (s *LedgerService) TripLedger(ctx context.Context, tripID uuid.UUID) (models.TripLedger, error) {
	gen, err := s.cache.Generation(ctx, tripID)
	if err != nil {
		logger.L().Warn("report cache generation read failed", zap.String("trip_id", tripID.String()), zap.Error(err))
	} else if cached, ok := s.cache.Get(ctx, tripID, gen); ok {
		return *cached, nil
	}

	snap, err := s.Snapshot(ctx, tripID)
	if err != nil {
		return models.TripLedger{}, err
	}

	roster := models.Roster(snap.Members)
	expenses, shares := models.LedgerRecords(snap.Expenses, snap.Shares)
	report, err := ledger.BuildReport(expenses, shares, roster)
	if err != nil {
		if errors.Is(err, ledger.ErrDataIntegrity) {
			logger.L().Error("trip ledger is inconsistent", zap.String("trip_id", tripID.String()), zap.Error(err))
		}
		return models.TripLedger{}, fmt.Errorf("compute ledger for trip %s: %w", tripID, err)
	}

	view := models.NewTripLedger(tripID.String(), report, roster, s.now())
	s.cache.Set(ctx, tripID, gen, view)
	return view, nil
}

// Snapshot reads the roster, expenses and shares of a trip in one read-only
// transaction so that a concurrent edit is seen entirely or not at all.
func (s *LedgerService) Snapshot(ctx context.Context, tripID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").
			Where("trip_id = ?", tripID).
			Order("joined_at, user_id").
			Find(&snap.Members).Error; err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		if err := tx.Where("trip_id = ?", tripID).
			Order("event_time, created_at, id").
			Find(&snap.Expenses).Error; err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		tripExpenses := tx.Model(&models.Expense{}).Select("id").Where("trip_id = ?", tripID)
		if err := tx.Where("expense_id IN (?)", tripExpenses).
			Order("expense_id, user_id").
			Find(&snap.Shares).Error; err != nil {
			return fmt.Errorf("load shares: %w", err)
		}
		return nil
	}, snapshotOptions(s.db))
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// snapshotOptions asks Postgres for a repeatable-read, read-only transaction.
// Other dialects keep their default isolation, which for sqlite is already
// serializable.
func snapshotOptions(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lei-jenny/Travel-with-Me/ledger"
	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

func TestCreateExpense_EvenSplit(t *testing.T) {
	f := newFixture(t)

	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.bob.ID, f.evenExpense(f.alice, "Ramen", "CNY", "100", f.alice, f.bob, f.cai))
	require.NoError(t, err)

	assert.Equal(t, "Ramen", e.Title)
	assert.Equal(t, f.alice.ID, e.PaidBy)
	assert.Equal(t, "Alice", e.Payer.Name)
	assert.Equal(t, f.bob.ID, e.CreatedBy)
	require.Len(t, e.Shares, 3)

	sum := decimal.Zero
	for _, s := range e.Shares {
		sum = sum.Add(s.Amount)
		assert.NotEmpty(t, s.User.Name)
	}
	assert.True(t, sum.Equal(dec("100")), "shares sum to %s", sum)

	var activity models.Activity
	require.NoError(t, f.db.Where("reference_id = ?", e.ID).First(&activity).Error)
	assert.Equal(t, models.ActivityExpenseAdded, activity.Type)
	assert.Contains(t, activity.Description, "CNY 100.00")
}

func TestCreateExpense_DefaultsToWholeRoster(t *testing.T) {
	f := newFixture(t)

	req := f.evenExpense(f.alice, "Taxi", "JPY", "3000")
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.alice.ID, req)
	require.NoError(t, err)
	require.Len(t, e.Shares, 3)
	for _, s := range e.Shares {
		assert.Equal(t, "1000.00", utils.FormatAmount(s.Amount))
	}
}

func TestCreateExpense_CustomSplit(t *testing.T) {
	f := newFixture(t)

	req := models.ExpenseRequest{
		Title:        "Hotel",
		Currency:     "USD",
		TotalAmount:  dec("100"),
		PaidBy:       f.bob.ID.String(),
		SplitType:    "custom",
		Participants: []string{f.alice.ID.String(), f.bob.ID.String()},
		CustomAmounts: map[string]decimal.Decimal{
			f.alice.ID.String(): dec("60"),
			f.bob.ID.String():   dec("39.99"),
		},
	}
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.bob.ID, req)
	require.NoError(t, err)

	amounts := map[uuid.UUID]string{}
	for _, s := range e.Shares {
		amounts[s.UserID] = utils.FormatAmount(s.Amount)
	}
	assert.Equal(t, map[uuid.UUID]string{f.alice.ID: "60.01", f.bob.ID: "39.99"}, amounts)
}

func TestCreateExpense_CustomSplitDefaultsToNamedMembers(t *testing.T) {
	f := newFixture(t)

	req := models.ExpenseRequest{
		Title:       "Taxi",
		Currency:    "CNY",
		TotalAmount: dec("100"),
		PaidBy:      f.bob.ID.String(),
		SplitType:   "custom",
		CustomAmounts: map[string]decimal.Decimal{
			f.bob.ID.String():   dec("45"),
			f.alice.ID.String(): dec("55"),
		},
	}
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.bob.ID, req)
	require.NoError(t, err)

	require.Len(t, e.Shares, 2)
	amounts := map[uuid.UUID]string{}
	for _, s := range e.Shares {
		amounts[s.UserID] = utils.FormatAmount(s.Amount)
	}
	assert.Equal(t, map[uuid.UUID]string{f.alice.ID: "55.00", f.bob.ID: "45.00"}, amounts)

	view, err := f.svc.Ledger.TripLedger(f.ctx, f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", f.balance(t, view, f.cai, "CNY"))
	assert.Equal(t, "-55.00", f.balance(t, view, f.alice, "CNY"))
}

func TestCreateExpense_ExplicitParticipantsIgnoreOtherAmounts(t *testing.T) {
	f := newFixture(t)

	req := f.evenExpense(f.alice, "Tickets", "CNY", "40", f.alice, f.bob)
	req.SplitType = "custom"
	req.CustomAmounts = map[string]decimal.Decimal{
		f.alice.ID.String(): dec("10"),
		f.bob.ID.String():   dec("30"),
		f.cai.ID.String():   dec("999"),
	}
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.alice.ID, req)
	require.NoError(t, err)
	assert.Len(t, e.Shares, 2)
}

func TestCreateExpense_Rejected(t *testing.T) {
	f := newFixture(t)

	other, err := f.svc.Trips.Create(f.ctx, f.outsider.ID, models.CreateTripRequest{Name: "Elsewhere"})
	require.NoError(t, err)
	foreignItem, err := f.svc.Itinerary.Create(f.ctx, other.ID, models.CreateItineraryItemRequest{Title: "Museum"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		actor  models.User
		mutate func(*models.ExpenseRequest)
		check  func(t *testing.T, err error)
	}{
		{
			name:  "custom amounts off by more than a cent",
			actor: f.alice,
			mutate: func(r *models.ExpenseRequest) {
				r.SplitType = "custom"
				r.Participants = []string{f.alice.ID.String(), f.bob.ID.String()}
				r.CustomAmounts = map[string]decimal.Decimal{f.alice.ID.String(): dec("50"), f.bob.ID.String(): dec("49.98")}
			},
			check: func(t *testing.T, err error) {
				var mismatch *ledger.SplitSumMismatchError
				require.True(t, errors.As(err, &mismatch))
				assert.Equal(t, "99.98", mismatch.Sum.StringFixed(2))
			},
		},
		{
			name:   "zero total",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.TotalAmount = decimal.Zero },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ledger.ErrInvalidAmount) },
		},
		{
			name:   "duplicate participant",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.Participants = []string{f.bob.ID.String(), f.bob.ID.String()} },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ledger.ErrInvalidSplit) },
		},
		{
			name:   "unsupported currency",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.Currency = "INR" },
			check:  assertValidation("currency"),
		},
		{
			name:   "payer outside trip",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.PaidBy = f.outsider.ID.String() },
			check:  assertValidation("paid_by"),
		},
		{
			name:   "participant outside trip",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.Participants = []string{f.alice.ID.String(), f.outsider.ID.String()} },
			check:  assertValidation("participants"),
		},
		{
			name:   "missing title",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.Title = "  " },
			check:  assertValidation("title"),
		},
		{
			name:   "itinerary item of another trip",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.ItineraryItemID = foreignItem.ID.String() },
			check:  assertValidation("itinerary_item_id"),
		},
		{
			name:   "unknown split type",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.SplitType = "shares" },
			check:  assertValidation("split_type"),
		},
		{
			name:   "total above storable maximum",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.TotalAmount = dec("100000000000000000") },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ledger.ErrInvalidAmount) },
		},
		{
			name:  "custom amount for someone outside the trip",
			actor: f.alice,
			mutate: func(r *models.ExpenseRequest) {
				r.SplitType = "custom"
				r.CustomAmounts = map[string]decimal.Decimal{f.alice.ID.String(): dec("50"), f.outsider.ID.String(): dec("50")}
			},
			check: assertValidation("custom_amounts"),
		},
		{
			name:   "custom split without amounts",
			actor:  f.alice,
			mutate: func(r *models.ExpenseRequest) { r.SplitType = "custom" },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ledger.ErrInvalidSplit) },
		},
		{
			name:   "actor not on trip",
			actor:  f.outsider,
			mutate: func(r *models.ExpenseRequest) {},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotMember) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.evenExpense(f.alice, "Lunch", "CNY", "100")
			tt.mutate(&req)
			_, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, tt.actor.ID, req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	var expenses, shares int64
	f.db.Model(&models.Expense{}).Count(&expenses)
	f.db.Model(&models.ExpenseShare{}).Count(&shares)
	assert.Zero(t, expenses)
	assert.Zero(t, shares)
}

func assertValidation(field string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Equal(t, field, verr.Field)
	}
}

func TestCreateExpense_UnknownTrip(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Expenses.Create(f.ctx, uuid.New(), f.alice.ID, f.evenExpense(f.alice, "x", "CNY", "1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateExpense_FromItineraryItem(t *testing.T) {
	f := newFixture(t)
	item, err := f.svc.Itinerary.Create(f.ctx, f.trip.ID, models.CreateItineraryItemRequest{
		Title:   "Fushimi Inari",
		DayDate: "2026-04-02",
	})
	require.NoError(t, err)

	req := f.evenExpense(f.cai, "", "JPY", "1500")
	req.ItineraryItemID = item.ID.String()
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.cai.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "Fushimi Inari", e.Title)
	require.NotNil(t, e.ItineraryItemID)
	assert.Equal(t, item.ID, *e.ItineraryItemID)
	require.NotNil(t, e.EventTime)
	assert.Equal(t, 12, e.EventTime.Hour())
	assert.Equal(t, 2, e.EventTime.Day())
}

func TestUpdateExpense_ReplacesShares(t *testing.T) {
	f := newFixture(t)
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.alice.ID, f.evenExpense(f.alice, "Dinner", "CNY", "90", f.alice, f.bob, f.cai))
	require.NoError(t, err)

	req := f.evenExpense(f.bob, "Dinner and drinks", "CNY", "120", f.alice, f.bob)
	req.EventTime = "2026-04-03T20:00"
	updated, err := f.svc.Expenses.Update(f.ctx, e.ID, f.cai.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "Dinner and drinks", updated.Title)
	assert.Equal(t, f.bob.ID, updated.PaidBy)
	assert.Equal(t, "120.00", utils.FormatAmount(updated.TotalAmount))
	require.NotNil(t, updated.EventTime)
	assert.Equal(t, time.Date(2026, 4, 3, 20, 0, 0, 0, time.UTC), updated.EventTime.UTC())
	require.Len(t, updated.Shares, 2)
	for _, s := range updated.Shares {
		assert.NotEqual(t, f.cai.ID, s.UserID)
		assert.Equal(t, "60.00", utils.FormatAmount(s.Amount))
	}

	var count int64
	f.db.Model(&models.ExpenseShare{}).Where("expense_id = ?", e.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestUpdateExpense_InvalidLeavesOriginal(t *testing.T) {
	f := newFixture(t)
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.alice.ID, f.evenExpense(f.alice, "Dinner", "CNY", "90", f.alice, f.bob, f.cai))
	require.NoError(t, err)

	req := f.evenExpense(f.alice, "Dinner", "CNY", "90")
	req.SplitType = "custom"
	req.CustomAmounts = map[string]decimal.Decimal{f.alice.ID.String(): dec("1")}
	_, err = f.svc.Expenses.Update(f.ctx, e.ID, f.alice.ID, req)
	require.Error(t, err)

	again, err := f.svc.Expenses.Get(f.ctx, e.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Len(t, again.Shares, 3)
	assert.Equal(t, "90.00", utils.FormatAmount(again.TotalAmount))
}

func TestDeleteExpense(t *testing.T) {
	f := newFixture(t)
	e, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.alice.ID, f.evenExpense(f.alice, "Dinner", "CNY", "90"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Expenses.Delete(f.ctx, e.ID, f.outsider.ID), ErrNotMember)
	require.NoError(t, f.svc.Expenses.Delete(f.ctx, e.ID, f.bob.ID))
	assert.ErrorIs(t, f.svc.Expenses.Delete(f.ctx, e.ID, f.bob.ID), ErrNotFound)

	var shares int64
	f.db.Model(&models.ExpenseShare{}).Where("expense_id = ?", e.ID).Count(&shares)
	assert.Zero(t, shares)

	_, err = f.svc.Expenses.Get(f.ctx, e.ID, f.alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListExpenses(t *testing.T) {
	f := newFixture(t)
	first := f.evenExpense(f.alice, "Breakfast", "CNY", "30")
	first.EventTime = "2026-04-01T08:00"
	second := f.evenExpense(f.bob, "Dinner", "CNY", "90")
	second.EventTime = "2026-04-01T19:00"
	for _, req := range []models.ExpenseRequest{first, second} {
		_, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.alice.ID, req)
		require.NoError(t, err)
	}

	list, err := f.svc.Expenses.List(f.ctx, f.trip.ID, utils.PaginationQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Dinner", list[0].Title)
	assert.Len(t, list[0].Shares, 3)

	page2, err := f.svc.Expenses.List(f.ctx, f.trip.ID, utils.PaginationQuery{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Breakfast", page2[0].Title)
}

func TestCreateExpense_NotifiesParticipants(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Expenses.Create(f.ctx, f.trip.ID, f.alice.ID, f.evenExpense(f.alice, "Tickets", "EUR", "30", f.alice, f.bob, f.cai))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(f.notifier.expenseNotices()) == 1 }, time.Second, 10*time.Millisecond)
	notice := f.notifier.expenseNotices()[0]
	assert.Equal(t, "Kyoto", notice.Trip.Name)
	assert.Equal(t, "Alice", notice.Payer.Name)
	assert.Len(t, notice.Owers, 3)
}

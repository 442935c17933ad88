package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Lei-jenny/Travel-with-Me/database"
	"github.com/Lei-jenny/Travel-with-Me/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	expenses []ExpenseNotice
	members  []models.User
	invites  []string
}

func (n *recordingNotifier) ExpenseAdded(_ context.Context, notice ExpenseNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expenses = append(n.expenses, notice)
}

func (n *recordingNotifier) MemberAdded(_ context.Context, _ models.Trip, _, member models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.members = append(n.members, member)
}

func (n *recordingNotifier) Invited(_ context.Context, email, _, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invites = append(n.invites, email)
}

func (n *recordingNotifier) expenseNotices() []ExpenseNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ExpenseNotice(nil), n.expenses...)
}

func (n *recordingNotifier) invitedEmails() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.invites...)
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	redis    *miniredis.Miniredis
	svc      *Services
	notifier *recordingNotifier

	alice, bob, cai, outsider models.User
	trip                      *models.Trip
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// newFixture builds a trip owned by alice with bob and cai on the roster.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		db:       openTestDB(t),
		redis:    miniredis.RunT(t),
		notifier: &recordingNotifier{},
	}
	client := redis.NewClient(&redis.Options{Addr: f.redis.Addr()})
	t.Cleanup(func() { client.Close() })
	f.svc = New(f.db, NewReportCache(client, time.Minute), f.notifier)

	f.alice = f.user(t, "Alice", "alice@example.com")
	f.bob = f.user(t, "Bob", "bob@example.com")
	f.cai = f.user(t, "Cai", "cai@example.com")
	f.outsider = f.user(t, "Olga", "olga@example.com")

	trip, err := f.svc.Trips.Create(f.ctx, f.alice.ID, models.CreateTripRequest{
		Name:        "Kyoto",
		Destination: "Japan",
		StartDate:   "2026-04-01",
		EndDate:     "2026-04-07",
		Members:     []string{f.bob.ID.String(), f.cai.Email},
	})
	require.NoError(t, err)
	require.Len(t, trip.Members, 3)
	f.trip = trip
	return f
}

func (f *fixture) user(t *testing.T, name, email string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) evenExpense(payer models.User, title, currency, total string, participants ...models.User) models.ExpenseRequest {
	req := models.ExpenseRequest{
		Title:       title,
		Currency:    currency,
		TotalAmount: dec(total),
		PaidBy:      payer.ID.String(),
		SplitType:   "even",
	}
	for _, p := range participants {
		req.Participants = append(req.Participants, p.ID.String())
	}
	return req
}

func (f *fixture) balance(t *testing.T, view models.TripLedger, user models.User, currency string) string {
	t.Helper()
	for _, b := range view.Balances.Balances {
		if b.UserID == user.ID.String() && b.Currency == currency {
			return b.Amount
		}
	}
	t.Fatalf("no %s balance for %s", currency, user.Name)
	return ""
}

// Package ledger computes shared-expense balances and settle-up transfers for
// a trip. Every function is a pure computation over plain records: it never
// reads storage and never keeps state between calls, so callers must hand in a
// consistent snapshot of expenses, shares and the member roster.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance is the slack within which a balance or a sum counts as zero/equal.
var Tolerance = decimal.New(1, -2)

// MaxAmount is the largest total an expense may carry. It matches the
// numeric(12,2) column expenses are stored in.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// Places is the number of minor-unit digits every amount is rounded to.
const Places = 2

type SplitKind string

const (
	SplitEven   SplitKind = "even"
	SplitCustom SplitKind = "custom"
)

func (k SplitKind) Valid() bool {
	return k == SplitEven || k == SplitCustom
}

// Participant is a trip member who can pay or owe money.
type Participant struct {
	ID   string
	Name string
}

// Expense is a payment made by one participant on behalf of the group.
type Expense struct {
	ID              string
	TripID          string
	Title           string
	EventTime       time.Time
	Currency        string
	Total           decimal.Decimal
	PayerID         string
	SplitKind       SplitKind
	ItineraryItemID string
}

// Share is one participant's owed portion of an expense.
type Share struct {
	ExpenseID     string
	ParticipantID string
	Amount        decimal.Decimal
}

type BalanceKey struct {
	ParticipantID string
	Currency      string
}

// Balances maps (participant, currency) to a signed net amount. Positive means
// the participant is owed money.
type Balances map[BalanceKey]decimal.Decimal

// Currencies returns the currencies present, sorted.
func (b Balances) Currencies() []string {
	seen := make(map[string]struct{})
	for k := range b {
		seen[k.Currency] = struct{}{}
	}
	return sortedKeys(seen)
}

// Of returns the balance of one participant in one currency (zero if absent).
func (b Balances) Of(participantID, currency string) decimal.Decimal {
	return b[BalanceKey{ParticipantID: participantID, Currency: currency}]
}

// Round rounds an amount to minor-unit precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// IsZero reports whether d lies inside the tolerance band around zero.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Tolerance)
}

func rosterIndex(participants []Participant) map[string]Participant {
	idx := make(map[string]Participant, len(participants))
	for _, p := range participants {
		idx[p.ID] = p
	}
	return idx
}

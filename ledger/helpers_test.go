package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.StringFixed(Places), msgAndArgs)
}

func roster(ids ...string) []Participant {
	out := make([]Participant, len(ids))
	for i, id := range ids {
		out[i] = Participant{ID: id, Name: "name-" + id}
	}
	return out
}

func withExpense(shares []Share, expenseID string) []Share {
	for i := range shares {
		shares[i].ExpenseID = expenseID
	}
	return shares
}

package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// tally is the single aggregation pass shared by ComputeBalances and
// Summarize, so both views always agree on rounding and validation.
type tally struct {
	paid       map[BalanceKey]decimal.Decimal
	owed       map[BalanceKey]decimal.Decimal
	currencies map[string]struct{}
}

func aggregate(expenses []Expense, shares []Share, participants []Participant) (*tally, error) {
	roster := rosterIndex(participants)
	t := &tally{
		paid:       make(map[BalanceKey]decimal.Decimal),
		owed:       make(map[BalanceKey]decimal.Decimal),
		currencies: make(map[string]struct{}),
	}

	byID := make(map[string]Expense, len(expenses))
	for _, e := range expenses {
		if e.ID == "" || e.Currency == "" {
			return nil, &DataIntegrityError{Fault: FaultInvalidExpense, ExpenseID: e.ID, Detail: "missing id or currency"}
		}
		if _, dup := byID[e.ID]; dup {
			return nil, &DataIntegrityError{Fault: FaultInvalidExpense, ExpenseID: e.ID, Detail: "duplicate expense id"}
		}
		if Round(e.Total).Sign() <= 0 {
			return nil, fmt.Errorf("%w: expense %s has total %s", ErrInvalidAmount, e.ID, e.Total.String())
		}
		if _, ok := roster[e.PayerID]; !ok {
			return nil, &DataIntegrityError{Fault: FaultUnknownPayer, ExpenseID: e.ID, ParticipantID: e.PayerID}
		}
		byID[e.ID] = e
	}

	shareSums := make(map[string]decimal.Decimal, len(expenses))
	for _, s := range shares {
		e, ok := byID[s.ExpenseID]
		if !ok {
			return nil, &DataIntegrityError{Fault: FaultOrphanShare, ExpenseID: s.ExpenseID, ParticipantID: s.ParticipantID}
		}
		if _, ok := roster[s.ParticipantID]; !ok {
			return nil, &DataIntegrityError{Fault: FaultUnknownParticipant, ExpenseID: e.ID, ParticipantID: s.ParticipantID}
		}
		amount := Round(s.Amount)
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("%w: expense %s has negative share for %s", ErrInvalidAmount, e.ID, s.ParticipantID)
		}
		key := BalanceKey{ParticipantID: s.ParticipantID, Currency: e.Currency}
		t.owed[key] = t.owed[key].Add(amount)
		shareSums[e.ID] = shareSums[e.ID].Add(amount)
	}

	for _, e := range expenses {
		total := Round(e.Total)
		if diff := shareSums[e.ID].Sub(total); !IsZero(diff) {
			return nil, &DataIntegrityError{
				Fault:     FaultShareSumMismatch,
				ExpenseID: e.ID,
				Detail:    fmt.Sprintf("shares sum to %s, total is %s", shareSums[e.ID].StringFixed(Places), total.StringFixed(Places)),
			}
		}
		key := BalanceKey{ParticipantID: e.PayerID, Currency: e.Currency}
		t.paid[key] = t.paid[key].Add(total)
		t.currencies[e.Currency] = struct{}{}
	}

	return t, nil
}

// ComputeBalances nets what every participant paid against what they owe,
// independently per currency. The expense's recorded total, not the sum of its
// shares, is what the payer is credited with.
//
// Shares may miss their expense's total by up to Tolerance, and that slack is
// not redistributed. Across many such expenses it adds up, so the balances of
// a currency can sum to more than Tolerance away from zero and the trip stays
// outstanding. Shares written by AllocateShares always sum exactly, so only
// records produced elsewhere are affected.
//
// Every roster participant gets an entry (possibly zero) for every currency
// that appears in the expenses.
func ComputeBalances(expenses []Expense, shares []Share, participants []Participant) (Balances, error) {
	t, err := aggregate(expenses, shares, participants)
	if err != nil {
		return nil, err
	}
	return t.balances(participants), nil
}

func (t *tally) balances(participants []Participant) Balances {
	balances := make(Balances, len(participants)*len(t.currencies))
	for currency := range t.currencies {
		for _, p := range participants {
			key := BalanceKey{ParticipantID: p.ID, Currency: currency}
			balances[key] = t.paid[key].Sub(t.owed[key])
		}
	}
	return balances
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

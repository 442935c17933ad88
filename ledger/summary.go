package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Position is what one participant paid and owes in one currency.
type Position struct {
	Currency string
	Paid     decimal.Decimal
	Owed     decimal.Decimal
	Net      decimal.Decimal
}

// ParticipantSummary lists a participant's positions, one per currency they
// paid or owed in. Participants with no activity have no positions.
type ParticipantSummary struct {
	ParticipantID string
	Name          string
	Positions     []Position
}

// CurrencyTotal is the total spend of a trip in one currency.
type CurrencyTotal struct {
	Currency string
	Total    decimal.Decimal
	Count    int
}

// Summarize reports paid and owed totals per participant and currency, in
// roster order. Net always equals the participant's entry in ComputeBalances.
func Summarize(expenses []Expense, shares []Share, participants []Participant) ([]ParticipantSummary, error) {
	t, err := aggregate(expenses, shares, participants)
	if err != nil {
		return nil, err
	}
	return t.summaries(participants), nil
}

func (t *tally) summaries(participants []Participant) []ParticipantSummary {
	currencies := sortedKeys(t.currencies)
	out := make([]ParticipantSummary, 0, len(participants))
	for _, p := range participants {
		s := ParticipantSummary{ParticipantID: p.ID, Name: p.Name, Positions: []Position{}}
		for _, c := range currencies {
			key := BalanceKey{ParticipantID: p.ID, Currency: c}
			paid, owed := t.paid[key], t.owed[key]
			if paid.IsZero() && owed.IsZero() {
				continue
			}
			s.Positions = append(s.Positions, Position{
				Currency: c,
				Paid:     paid,
				Owed:     owed,
				Net:      paid.Sub(owed),
			})
		}
		out = append(out, s)
	}
	return out
}

// TotalsByCurrency sums expense totals per currency, sorted by currency.
func TotalsByCurrency(expenses []Expense) []CurrencyTotal {
	idx := make(map[string]int)
	var out []CurrencyTotal
	for _, e := range expenses {
		i, ok := idx[e.Currency]
		if !ok {
			i = len(out)
			idx[e.Currency] = i
			out = append(out, CurrencyTotal{Currency: e.Currency, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(Round(e.Total))
		out[i].Count++
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Currency < out[b].Currency })
	return out
}

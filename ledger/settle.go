package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is one payment that moves a debtor toward zero.
type Transfer struct {
	FromID   string
	FromName string
	ToID     string
	ToName   string
	Amount   decimal.Decimal
	Currency string
}

// CurrencyPlan is the settle-up result for one currency. Settled is true when
// every balance in the currency is inside the tolerance band.
type CurrencyPlan struct {
	Currency  string
	Transfers []Transfer
	Settled   bool
}

type Status string

const (
	StatusNoExpenses  Status = "no_expenses"
	StatusSettled     Status = "settled"
	StatusOutstanding Status = "outstanding"
)

// Plan holds the transfers for every currency in a balance map.
type Plan struct {
	Currencies []string
	ByCurrency map[string]CurrencyPlan
}

// FullySettled reports whether every currency is settled. It is true for a
// plan with no currencies; use Status to tell the two apart.
func (p Plan) FullySettled() bool {
	for _, c := range p.Currencies {
		if !p.ByCurrency[c].Settled {
			return false
		}
	}
	return true
}

func (p Plan) Status() Status {
	switch {
	case len(p.Currencies) == 0:
		return StatusNoExpenses
	case p.FullySettled():
		return StatusSettled
	default:
		return StatusOutstanding
	}
}

// Transfers flattens the plan in currency order.
func (p Plan) Transfers() []Transfer {
	var out []Transfer
	for _, c := range p.Currencies {
		out = append(out, p.ByCurrency[c].Transfers...)
	}
	return out
}

type position struct {
	id     string
	amount decimal.Decimal
}

// ComputeSettlements turns a balance map into a transfer list per currency
// using greedy largest-debtor to largest-creditor matching.
//
// Greedy pairing is not the global minimum number of transfers. It never emits
// more than debtors+creditors-1 transfers for a currency. Currencies never net
// against each other.
func ComputeSettlements(balances Balances, participants []Participant) (Plan, error) {
	roster := rosterIndex(participants)

	byCurrency := make(map[string][]position)
	for key, amount := range balances {
		if _, ok := roster[key.ParticipantID]; !ok {
			return Plan{}, &DataIntegrityError{Fault: FaultUnknownParticipant, ParticipantID: key.ParticipantID, Detail: "balance for participant outside roster"}
		}
		byCurrency[key.Currency] = append(byCurrency[key.Currency], position{id: key.ParticipantID, amount: amount})
	}

	plan := Plan{
		Currencies: balances.Currencies(),
		ByCurrency: make(map[string]CurrencyPlan, len(byCurrency)),
	}
	for _, currency := range plan.Currencies {
		plan.ByCurrency[currency] = settleCurrency(currency, byCurrency[currency], roster)
	}
	return plan, nil
}

func settleCurrency(currency string, positions []position, roster map[string]Participant) CurrencyPlan {
	var debtors, creditors []position
	negTolerance := Tolerance.Neg()
	for _, p := range positions {
		switch {
		case p.amount.LessThan(negTolerance):
			debtors = append(debtors, position{id: p.id, amount: p.amount.Neg()})
		case p.amount.GreaterThan(Tolerance):
			creditors = append(creditors, p)
		}
	}
	sortPositions(debtors)
	sortPositions(creditors)

	cp := CurrencyPlan{
		Currency:  currency,
		Transfers: []Transfer{},
		Settled:   len(debtors) == 0 && len(creditors) == 0,
	}

	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		transfer := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount := Round(transfer); amount.Sign() > 0 {
			cp.Transfers = append(cp.Transfers, Transfer{
				FromID:   debtors[i].id,
				FromName: roster[debtors[i].id].Name,
				ToID:     creditors[j].id,
				ToName:   roster[creditors[j].id].Name,
				Amount:   amount,
				Currency: currency,
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(transfer)
		creditors[j].amount = creditors[j].amount.Sub(transfer)

		if debtors[i].amount.LessThan(Tolerance) {
			i++
		}
		if creditors[j].amount.LessThan(Tolerance) {
			j++
		}
	}
	return cp
}

// sortPositions orders by amount descending, then id, so equal amounts never
// depend on map iteration order.
func sortPositions(ps []position) {
	sort.Slice(ps, func(a, b int) bool {
		if c := ps[a].amount.Cmp(ps[b].amount); c != 0 {
			return c > 0
		}
		return ps[a].id < ps[b].id
	})
}

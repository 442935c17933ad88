package models

import (
	"github.com/Lei-jenny/Travel-with-Me/ledger"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// SettlementPlan is returned for GET /api/trips/:id/settlements. FullySettled
// is also true for a trip with no expenses; Status tells the two apart.
type SettlementPlan struct {
	TripID       string               `json:"trip_id"`
	Status       string               `json:"status"`
	FullySettled bool                 `json:"fully_settled"`
	Currencies   []CurrencySettlement `json:"currencies"`
}

type CurrencySettlement struct {
	Currency  string     `json:"currency"`
	Settled   bool       `json:"settled"`
	Transfers []Transfer `json:"transfers"`
}

// Transfer is a suggested payment; nothing is recorded when it is made.
type Transfer struct {
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func NewSettlementPlan(tripID string, plan ledger.Plan) SettlementPlan {
	out := SettlementPlan{
		TripID:       tripID,
		Status:       string(plan.Status()),
		FullySettled: plan.FullySettled(),
		Currencies:   make([]CurrencySettlement, 0, len(plan.Currencies)),
	}
	for _, c := range plan.Currencies {
		cp := plan.ByCurrency[c]
		cs := CurrencySettlement{Currency: c, Settled: cp.Settled, Transfers: make([]Transfer, 0, len(cp.Transfers))}
		for _, t := range cp.Transfers {
			cs.Transfers = append(cs.Transfers, Transfer{
				From:     t.FromID,
				FromName: t.FromName,
				To:       t.ToID,
				ToName:   t.ToName,
				Amount:   utils.FormatAmount(t.Amount),
				Currency: t.Currency,
			})
		}
		out.Currencies = append(out.Currencies, cs)
	}
	return out
}

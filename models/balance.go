package models

import (
	"time"

	"github.com/Lei-jenny/Travel-with-Me/ledger"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// TripLedger is every computed view of a trip's ledger at one snapshot. It is
// the unit the report cache stores.
type TripLedger struct {
	TripID     string         `json:"trip_id"`
	Balances   BalanceSheet   `json:"balances"`
	Settlement SettlementPlan `json:"settlement"`
	ComputedAt time.Time      `json:"computed_at"`
}

// BalanceSheet is returned for GET /api/trips/:id/balances
type BalanceSheet struct {
	TripID       string               `json:"trip_id"`
	Totals       []CurrencyTotal      `json:"totals"`
	Balances     []Balance            `json:"balances"`
	Participants []ParticipantSummary `json:"participants"`
}

// Balance is a participant's signed net position in one currency: positive
// means they are owed money.
type Balance struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type CurrencyTotal struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

type ParticipantSummary struct {
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Positions []Position `json:"positions"`
}

type Position struct {
	Currency string `json:"currency"`
	Paid     string `json:"paid"`
	Owed     string `json:"owed"`
	Net      string `json:"net"`
}

// NewTripLedger renders a ledger report. Balances follow roster order within
// each currency.
func NewTripLedger(tripID string, report ledger.Report, roster []ledger.Participant, now time.Time) TripLedger {
	sheet := BalanceSheet{
		TripID:       tripID,
		Totals:       make([]CurrencyTotal, 0, len(report.Totals)),
		Balances:     []Balance{},
		Participants: make([]ParticipantSummary, 0, len(report.Summaries)),
	}
	for _, t := range report.Totals {
		sheet.Totals = append(sheet.Totals, CurrencyTotal{
			Currency: t.Currency,
			Total:    utils.FormatAmount(t.Total),
			Count:    t.Count,
		})
	}
	for _, currency := range report.Balances.Currencies() {
		for _, p := range roster {
			sheet.Balances = append(sheet.Balances, Balance{
				UserID:   p.ID,
				Name:     p.Name,
				Currency: currency,
				Amount:   utils.FormatAmount(report.Balances.Of(p.ID, currency)),
			})
		}
	}
	for _, s := range report.Summaries {
		ps := ParticipantSummary{UserID: s.ParticipantID, Name: s.Name, Positions: make([]Position, 0, len(s.Positions))}
		for _, pos := range s.Positions {
			ps.Positions = append(ps.Positions, Position{
				Currency: pos.Currency,
				Paid:     utils.FormatAmount(pos.Paid),
				Owed:     utils.FormatAmount(pos.Owed),
				Net:      utils.FormatAmount(pos.Net),
			})
		}
		sheet.Participants = append(sheet.Participants, ps)
	}

	return TripLedger{
		TripID:     tripID,
		Balances:   sheet,
		Settlement: NewSettlementPlan(tripID, report.Plan),
		ComputedAt: now.UTC(),
	}
}

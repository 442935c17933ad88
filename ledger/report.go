package ledger

// Report bundles every ledger view of one snapshot.
type Report struct {
	Balances  Balances
	Plan      Plan
	Summaries []ParticipantSummary
	Totals    []CurrencyTotal
}

// BuildReport runs the aggregation once and derives balances, the settle-up
// plan, per-participant summaries and currency totals from it.
func BuildReport(expenses []Expense, shares []Share, participants []Participant) (Report, error) {
	t, err := aggregate(expenses, shares, participants)
	if err != nil {
		return Report{}, err
	}

	balances := t.balances(participants)
	plan, err := ComputeSettlements(balances, participants)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Balances:  balances,
		Plan:      plan,
		Summaries: t.summaries(participants),
		Totals:    TotalsByCurrency(expenses),
	}, nil
}

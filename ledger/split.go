package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AllocateShares derives the share list for an expense of the given total,
// which must be positive and at most MaxAmount.
//
// Even split: every selected participant owes total/n. The split is done in
// minor units; the leftover cents (fewer than n) go one each to the first
// participants in order, so the shares always add up to the total exactly.
//
// Custom split: custom must hold an amount for every selected participant and
// those amounts must add up to the total within Tolerance. An accepted residual
// is folded into the largest share. Amounts for unselected participants are
// ignored.
//
// The returned shares carry no ExpenseID; the caller assigns it on save.
func AllocateShares(total decimal.Decimal, kind SplitKind, participantIDs []string, custom map[string]decimal.Decimal) ([]Share, error) {
	total = Round(total)
	if total.Sign() <= 0 {
		return nil, fmt.Errorf("%w: total must be positive, got %s", ErrInvalidAmount, total.StringFixed(Places))
	}
	if total.GreaterThan(MaxAmount) {
		return nil, fmt.Errorf("%w: total %s exceeds %s", ErrInvalidAmount, total.StringFixed(Places), MaxAmount.StringFixed(Places))
	}
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("%w: select at least one participant", ErrInvalidSplit)
	}

	seen := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty participant id", ErrInvalidSplit)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: participant %s selected twice", ErrInvalidSplit, id)
		}
		seen[id] = struct{}{}
	}

	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown split kind %q", ErrInvalidSplit, kind)
	}

	switch kind {
	case SplitEven:
		return evenShares(total, participantIDs), nil
	case SplitCustom:
		return customShares(total, participantIDs, custom)
	}
	return nil, fmt.Errorf("%w: unknown split kind %q", ErrInvalidSplit, kind)
}

func evenShares(total decimal.Decimal, participantIDs []string) []Share {
	cents := total.Shift(Places).IntPart()
	n := int64(len(participantIDs))
	base, leftover := cents/n, cents%n

	shares := make([]Share, len(participantIDs))
	for i, id := range participantIDs {
		c := base
		if int64(i) < leftover {
			c++
		}
		shares[i] = Share{ParticipantID: id, Amount: decimal.New(c, -Places)}
	}
	return shares
}

func customShares(total decimal.Decimal, participantIDs []string, custom map[string]decimal.Decimal) ([]Share, error) {
	shares := make([]Share, len(participantIDs))
	sum := decimal.Zero
	largest := 0

	for i, id := range participantIDs {
		amount, ok := custom[id]
		if !ok {
			return nil, fmt.Errorf("%w: no amount for participant %s", ErrInvalidSplit, id)
		}
		amount = Round(amount)
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative share %s for participant %s", ErrInvalidAmount, amount.StringFixed(Places), id)
		}
		shares[i] = Share{ParticipantID: id, Amount: amount}
		sum = sum.Add(amount)
		if amount.GreaterThan(shares[largest].Amount) {
			largest = i
		}
	}

	residual := sum.Sub(total)
	if residual.Abs().GreaterThan(Tolerance) {
		return nil, &SplitSumMismatchError{Total: total, Sum: sum}
	}
	if !residual.IsZero() {
		shares[largest].Amount = shares[largest].Amount.Sub(residual)
	}
	return shares, nil
}

package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

func TestAllocateShares_Even(t *testing.T) {
	tests := []struct {
		name  string
		total string
		ids   []string
		want  []string
	}{
		{name: "divides exactly", total: "90.00", ids: []string{"a", "b", "c"}, want: []string{"30", "30", "30"}},
		{name: "leftover cent goes to first", total: "100", ids: []string{"a", "b", "c"}, want: []string{"33.34", "33.33", "33.33"}},
		{name: "two leftover cents", total: "10.00", ids: []string{"a", "b", "c", "d", "e", "f"}, want: []string{"1.67", "1.67", "1.67", "1.67", "1.66", "1.66"}},
		{name: "fewer cents than participants", total: "0.02", ids: []string{"a", "b", "c"}, want: []string{"0.01", "0.01", "0"}},
		{name: "single participant", total: "12.34", ids: []string{"a"}, want: []string{"12.34"}},
		{name: "total rounded to cents first", total: "10.005", ids: []string{"a", "b"}, want: []string{"5.01", "5.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := AllocateShares(dec(tt.total), SplitEven, tt.ids, nil)
			require.NoError(t, err)
			require.Len(t, shares, len(tt.want))
			for i, s := range shares {
				assert.Equal(t, tt.ids[i], s.ParticipantID)
				assertAmount(t, tt.want[i], s.Amount, s.ParticipantID)
				assert.False(t, s.Amount.IsNegative())
			}
			assertAmount(t, Round(dec(tt.total)).String(), sumShares(shares))
		})
	}
}

func TestAllocateShares_EvenStaysWithinToleranceOfRoundedQuotient(t *testing.T) {
	for n := 1; n <= 12; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		for _, total := range []string{"0.01", "0.05", "1.00", "7.77", "100", "999.99"} {
			shares, err := AllocateShares(dec(total), SplitEven, ids, nil)
			require.NoError(t, err)
			quotient := dec(total).DivRound(decimal.NewFromInt(int64(n)), Places)
			for _, s := range shares {
				assert.True(t, IsZero(s.Amount.Sub(quotient)), "total=%s n=%d share=%s", total, n, s.Amount)
			}
			assertAmount(t, total, sumShares(shares))
		}
	}
}

func TestAllocateShares_Custom(t *testing.T) {
	ids := []string{"a", "b"}

	t.Run("exact sum accepted as given", func(t *testing.T) {
		shares, err := AllocateShares(dec("100"), SplitCustom, ids, map[string]decimal.Decimal{"a": dec("70"), "b": dec("30")})
		require.NoError(t, err)
		assertAmount(t, "70", shares[0].Amount)
		assertAmount(t, "30", shares[1].Amount)
	})

	t.Run("99.99 accepted and residual folded into largest share", func(t *testing.T) {
		shares, err := AllocateShares(dec("100.00"), SplitCustom, ids, map[string]decimal.Decimal{"a": dec("49.99"), "b": dec("50.00")})
		require.NoError(t, err)
		assertAmount(t, "49.99", shares[0].Amount)
		assertAmount(t, "50.01", shares[1].Amount)
		assertAmount(t, "100", sumShares(shares))
	})

	t.Run("100.01 accepted", func(t *testing.T) {
		shares, err := AllocateShares(dec("100.00"), SplitCustom, ids, map[string]decimal.Decimal{"a": dec("50.01"), "b": dec("50.00")})
		require.NoError(t, err)
		assertAmount(t, "50.00", shares[0].Amount)
		assertAmount(t, "50.00", shares[1].Amount)
	})

	t.Run("99.98 rejected with both sums", func(t *testing.T) {
		_, err := AllocateShares(dec("100.00"), SplitCustom, ids, map[string]decimal.Decimal{"a": dec("49.99"), "b": dec("49.99")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSplitSumMismatch))

		var mismatch *SplitSumMismatchError
		require.True(t, errors.As(err, &mismatch))
		assertAmount(t, "100", mismatch.Total)
		assertAmount(t, "99.98", mismatch.Sum)
		assert.Contains(t, err.Error(), "99.98")
	})

	t.Run("missing amount", func(t *testing.T) {
		_, err := AllocateShares(dec("100"), SplitCustom, ids, map[string]decimal.Decimal{"a": dec("100")})
		assert.ErrorIs(t, err, ErrInvalidSplit)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := AllocateShares(dec("100"), SplitCustom, ids, map[string]decimal.Decimal{"a": dec("110"), "b": dec("-10")})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unselected amounts ignored", func(t *testing.T) {
		shares, err := AllocateShares(dec("10"), SplitCustom, []string{"a"}, map[string]decimal.Decimal{"a": dec("10"), "z": dec("5")})
		require.NoError(t, err)
		require.Len(t, shares, 1)
		assert.Equal(t, "a", shares[0].ParticipantID)
	})

	t.Run("zero share allowed", func(t *testing.T) {
		shares, err := AllocateShares(dec("10"), SplitCustom, ids, map[string]decimal.Decimal{"a": dec("10"), "b": dec("0")})
		require.NoError(t, err)
		assertAmount(t, "0", shares[1].Amount)
	})
}

func TestAllocateShares_Errors(t *testing.T) {
	tests := []struct {
		name  string
		total string
		kind  SplitKind
		ids   []string
		want  error
	}{
		{name: "zero total", total: "0", kind: SplitEven, ids: []string{"a"}, want: ErrInvalidAmount},
		{name: "negative total", total: "-5", kind: SplitEven, ids: []string{"a"}, want: ErrInvalidAmount},
		{name: "rounds to zero", total: "0.004", kind: SplitEven, ids: []string{"a"}, want: ErrInvalidAmount},
		{name: "above storable maximum", total: "10000000000.00", kind: SplitEven, ids: []string{"a", "b"}, want: ErrInvalidAmount},
		{name: "beyond int64 cents", total: "100000000000000000", kind: SplitEven, ids: []string{"a", "b"}, want: ErrInvalidAmount},
		{name: "huge custom total", total: "1e20", kind: SplitCustom, ids: []string{"a"}, want: ErrInvalidAmount},
		{name: "no participants", total: "10", kind: SplitEven, ids: nil, want: ErrInvalidSplit},
		{name: "duplicate participant", total: "10", kind: SplitEven, ids: []string{"a", "a"}, want: ErrInvalidSplit},
		{name: "empty id", total: "10", kind: SplitEven, ids: []string{""}, want: ErrInvalidSplit},
		{name: "unknown kind", total: "10", kind: SplitKind("percentage"), ids: []string{"a"}, want: ErrInvalidSplit},
		{name: "custom without amounts", total: "10", kind: SplitCustom, ids: []string{"a"}, want: ErrInvalidSplit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := AllocateShares(dec(tt.total), tt.kind, tt.ids, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, shares)
		})
	}
}

func TestAllocateShares_MaxAmount(t *testing.T) {
	shares, err := AllocateShares(MaxAmount, SplitEven, []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	assertAmount(t, MaxAmount.String(), sumShares(shares))
	for _, s := range shares {
		assert.True(t, s.Amount.IsPositive())
	}
	assertAmount(t, "3333333333.33", shares[0].Amount)
	assertAmount(t, "3333333333.33", shares[2].Amount)
}

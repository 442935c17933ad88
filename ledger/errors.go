package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidSplit     = errors.New("invalid split")
	ErrSplitSumMismatch = errors.New("split amounts do not add up to total")
	ErrDataIntegrity    = errors.New("ledger data integrity fault")
)

// SplitSumMismatchError is returned when custom shares miss the expense total
// by more than Tolerance.
type SplitSumMismatchError struct {
	Total decimal.Decimal
	Sum   decimal.Decimal
}

func (e *SplitSumMismatchError) Error() string {
	return fmt.Sprintf("custom amounts (%s) must equal total (%s)", e.Sum.StringFixed(Places), e.Total.StringFixed(Places))
}

func (e *SplitSumMismatchError) Is(target error) bool {
	return target == ErrSplitSumMismatch
}

type IntegrityFault string

const (
	FaultUnknownPayer       IntegrityFault = "unknown_payer"
	FaultUnknownParticipant IntegrityFault = "unknown_participant"
	FaultOrphanShare        IntegrityFault = "orphan_share"
	FaultShareSumMismatch   IntegrityFault = "share_sum_mismatch"
	FaultInvalidExpense     IntegrityFault = "invalid_expense"
)

// DataIntegrityError reports a snapshot the ledger refuses to compute over,
// such as an expense paid by someone who is not on the roster.
type DataIntegrityError struct {
	Fault         IntegrityFault
	ExpenseID     string
	ParticipantID string
	Detail        string
}

func (e *DataIntegrityError) Error() string {
	msg := fmt.Sprintf("ledger integrity fault %s", e.Fault)
	if e.ExpenseID != "" {
		msg += " expense=" + e.ExpenseID
	}
	if e.ParticipantID != "" {
		msg += " participant=" + e.ParticipantID
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

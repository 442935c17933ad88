package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/ledger"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// SupportedCurrencies are the ISO codes an expense may be recorded in.
var SupportedCurrencies = []string{"CNY", "USD", "EUR", "JPY", "THB", "GBP", "KRW", "SGD", "HKD", "TWD"}

func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

type Expense struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TripID          uuid.UUID       `gorm:"type:uuid;index" json:"trip_id"`
	ItineraryItemID *uuid.UUID      `gorm:"type:uuid;index" json:"itinerary_item_id,omitempty"`
	Title           string          `gorm:"not null;size:255" json:"title"`
	EventTime       *time.Time      `json:"event_time,omitempty"`
	Currency        string          `gorm:"not null;size:3" json:"currency"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaidBy          uuid.UUID       `gorm:"type:uuid" json:"paid_by"`
	Payer           User            `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	SplitType       string          `gorm:"not null;size:10" json:"split_type"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	Shares          []ExpenseShare  `gorm:"foreignKey:ExpenseID" json:"shares,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Expense) ToLedger() ledger.Expense {
	le := ledger.Expense{
		ID:        e.ID.String(),
		TripID:    e.TripID.String(),
		Title:     e.Title,
		Currency:  e.Currency,
		Total:     e.TotalAmount,
		PayerID:   e.PaidBy.String(),
		SplitKind: ledger.SplitKind(e.SplitType),
	}
	if e.EventTime != nil {
		le.EventTime = *e.EventTime
	}
	if e.ItineraryItemID != nil {
		le.ItineraryItemID = e.ItineraryItemID.String()
	}
	return le
}

// ExpenseShare is the amount one participant owes for an expense.
type ExpenseShare struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID uuid.UUID       `gorm:"type:uuid;index" json:"expense_id"`
	UserID    uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (s *ExpenseShare) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *ExpenseShare) ToLedger() ledger.Share {
	return ledger.Share{
		ExpenseID:     s.ExpenseID.String(),
		ParticipantID: s.UserID.String(),
		Amount:        s.Amount,
	}
}

// LedgerRecords converts a trip's expenses and shares for the ledger package.
func LedgerRecords(expenses []Expense, shares []ExpenseShare) ([]ledger.Expense, []ledger.Share) {
	le := make([]ledger.Expense, len(expenses))
	for i := range expenses {
		le[i] = expenses[i].ToLedger()
	}
	ls := make([]ledger.Share, len(shares))
	for i := range shares {
		ls[i] = shares[i].ToLedger()
	}
	return le, ls
}

// ExpenseRequest is the body of both create and edit. An edit replaces the
// expense and all of its shares.
type ExpenseRequest struct {
	Title           string                     `json:"title"`
	ItineraryItemID string                     `json:"itinerary_item_id"`
	EventTime       string                     `json:"event_time"` // RFC 3339 or YYYY-MM-DDTHH:MM
	Currency        string                     `json:"currency" binding:"required"`
	TotalAmount     decimal.Decimal            `json:"total_amount"`
	PaidBy          string                     `json:"paid_by" binding:"required"`
	SplitType       string                     `json:"split_type" binding:"required,oneof=even custom"`
	Participants    []string                   `json:"participants"` // empty means every trip member
	CustomAmounts   map[string]decimal.Decimal `json:"custom_amounts"`
}

// Response
type ExpenseResponse struct {
	ID              uuid.UUID       `json:"id"`
	TripID          uuid.UUID       `json:"trip_id"`
	ItineraryItemID *uuid.UUID      `json:"itinerary_item_id,omitempty"`
	Title           string          `json:"title"`
	EventTime       *time.Time      `json:"event_time,omitempty"`
	Currency        string          `json:"currency"`
	TotalAmount     string          `json:"total_amount"`
	PaidBy          uuid.UUID       `json:"paid_by"`
	PayerName       string          `json:"payer_name"`
	SplitType       string          `json:"split_type"`
	Shares          []ShareResponse `json:"shares"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ShareResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Amount   string    `json:"amount"`
}

// ToResponse expects Payer and Shares.User to be preloaded.
func (e *Expense) ToResponse() ExpenseResponse {
	shares := make([]ShareResponse, 0, len(e.Shares))
	for _, s := range e.Shares {
		shares = append(shares, ShareResponse{
			UserID:   s.UserID,
			UserName: s.User.Name,
			Amount:   utils.FormatAmount(s.Amount),
		})
	}
	return ExpenseResponse{
		ID:              e.ID,
		TripID:          e.TripID,
		ItineraryItemID: e.ItineraryItemID,
		Title:           e.Title,
		EventTime:       e.EventTime,
		Currency:        e.Currency,
		TotalAmount:     utils.FormatAmount(e.TotalAmount),
		PaidBy:          e.PaidBy,
		PayerName:       e.Payer.Name,
		SplitType:       e.SplitType,
		Shares:          shares,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

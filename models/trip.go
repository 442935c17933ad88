package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/ledger"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Trip struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"not null;size:100" json:"name"`
	Destination  string       `gorm:"size:100" json:"destination,omitempty"`
	StartDate    *time.Time   `gorm:"type:date" json:"start_date,omitempty"`
	EndDate      *time.Time   `gorm:"type:date" json:"end_date,omitempty"`
	BaseCurrency string       `gorm:"default:CNY;size:3" json:"base_currency"`
	CreatedBy    uuid.UUID    `gorm:"type:uuid" json:"created_by"`
	Members      []TripMember `gorm:"foreignKey:TripID" json:"members,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TripMember struct {
	TripID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"trip_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     string    `gorm:"default:member;size:20" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Roster converts members (with User preloaded) into ledger participants,
// keeping the given order.
func Roster(members []TripMember) []ledger.Participant {
	out := make([]ledger.Participant, 0, len(members))
	for _, m := range members {
		p := m.User.ToParticipant()
		p.ID = m.UserID.String()
		if p.Name == "" {
			p.Name = p.ID
		}
		out = append(out, p)
	}
	return out
}

// Request structs
type CreateTripRequest struct {
	Name         string   `json:"name" binding:"required"`
	Destination  string   `json:"destination"`
	StartDate    string   `json:"start_date"` // YYYY-MM-DD
	EndDate      string   `json:"end_date"`
	BaseCurrency string   `json:"base_currency"`
	Members      []string `json:"members"` // user IDs or emails
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Response structs
type TripResponse struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Destination  string               `json:"destination,omitempty"`
	StartDate    *time.Time           `json:"start_date,omitempty"`
	EndDate      *time.Time           `json:"end_date,omitempty"`
	BaseCurrency string               `json:"base_currency"`
	CreatedBy    uuid.UUID            `json:"created_by"`
	Members      []TripMemberResponse `json:"members"`
	CreatedAt    time.Time            `json:"created_at"`
}

type TripMemberResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (t *Trip) ToResponse() TripResponse {
	members := make([]TripMemberResponse, 0, len(t.Members))
	for _, m := range t.Members {
		members = append(members, TripMemberResponse{
			UserID:    m.UserID,
			Name:      m.User.Name,
			Email:     m.User.Email,
			AvatarURL: m.User.AvatarURL,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
		})
	}
	return TripResponse{
		ID:           t.ID,
		Name:         t.Name,
		Destination:  t.Destination,
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		BaseCurrency: t.BaseCurrency,
		CreatedBy:    t.CreatedBy,
		Members:      members,
		CreatedAt:    t.CreatedAt,
	}
}

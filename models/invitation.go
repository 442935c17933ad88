package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
)

// Invitation holds a trip seat for an email that has no account yet.
type Invitation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TripID    uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	Trip      Trip      `gorm:"foreignKey:TripID" json:"-"`
	InvitedBy uuid.UUID `gorm:"type:uuid" json:"invited_by"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Status    string    `gorm:"default:pending;size:20" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItineraryItem is a planned stop on a trip. An expense may link to one.
type ItineraryItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TripID    uuid.UUID  `gorm:"type:uuid;index" json:"trip_id"`
	Title     string     `gorm:"not null;size:255" json:"title"`
	Location  string     `gorm:"size:255" json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	DayDate   *time.Time `gorm:"type:date" json:"day_date,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (i *ItineraryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// DefaultEventTime is the time an expense linked to this item is logged at
// when the caller gives none: the start time, else midday on the item's day.
func (i *ItineraryItem) DefaultEventTime() (time.Time, bool) {
	switch {
	case i.StartTime != nil:
		return *i.StartTime, true
	case i.DayDate != nil:
		d := *i.DayDate
		return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, d.Location()), true
	default:
		return time.Time{}, false
	}
}

type CreateItineraryItemRequest struct {
	Title     string `json:"title" binding:"required"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
	DayDate   string `json:"day_date"`   // YYYY-MM-DD
	StartTime string `json:"start_time"` // RFC 3339
}

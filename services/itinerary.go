package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

type ItineraryService struct {
	db *gorm.DB
}

func (s *ItineraryService) Create(ctx context.Context, tripID uuid.UUID, req models.CreateItineraryItemRequest) (*models.ItineraryItem, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	day, err := utils.ParseDate(req.DayDate)
	if err != nil {
		return nil, invalid("day_date", "expected YYYY-MM-DD")
	}
	start, err := utils.ParseEventTime(req.StartTime)
	if err != nil {
		return nil, invalid("start_time", "expected RFC 3339 or YYYY-MM-DDTHH:MM")
	}

	item := models.ItineraryItem{
		TripID:    tripID,
		Title:     title,
		Location:  strings.TrimSpace(req.Location),
		Notes:     req.Notes,
		DayDate:   day,
		StartTime: start,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create itinerary item: %w", err)
	}
	return &item, nil
}

func (s *ItineraryService) List(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryItem, error) {
	var items []models.ItineraryItem
	if err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("day_date, start_time, created_at").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list itinerary: %w", err)
	}
	return items, nil
}

// Unlogged lists the trip's itinerary items that no expense links to yet.
func (s *ItineraryService) Unlogged(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryItem, error) {
	linked := s.db.Model(&models.Expense{}).
		Select("itinerary_item_id").
		Where("trip_id = ? AND itinerary_item_id IS NOT NULL", tripID)

	var items []models.ItineraryItem
	if err := s.db.WithContext(ctx).
		Where("trip_id = ? AND id NOT IN (?)", tripID, linked).
		Order("day_date, start_time, created_at").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list unlogged itinerary: %w", err)
	}
	return items, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

type ActivityService struct {
	db *gorm.DB
}

// ForTrip returns a page of a trip's activity, newest first.
func (s *ActivityService) ForTrip(ctx context.Context, tripID uuid.UUID, page utils.PaginationQuery) ([]models.Activity, error) {
	page.Normalize()
	var activities []models.Activity
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Preload("User").
		Order("created_at DESC, id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return activities, nil
}

// ForUser returns a page of activity across every trip the user is on.
func (s *ActivityService) ForUser(ctx context.Context, userID uuid.UUID, page utils.PaginationQuery) ([]models.Activity, error) {
	page.Normalize()
	mine := s.db.Model(&models.TripMember{}).Select("trip_id").Where("user_id = ?", userID)

	var activities []models.Activity
	err := s.db.WithContext(ctx).
		Where("trip_id IN (?)", mine).
		Preload("User").
		Order("created_at DESC, id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	var trips []models.Trip
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN (?)", mine).Find(&trips).Error; err != nil {
		return nil, fmt.Errorf("load trip names: %w", err)
	}
	names := make(map[uuid.UUID]string, len(trips))
	for _, t := range trips {
		names[t.ID] = t.Name
	}
	for i := range activities {
		activities[i].TripName = names[activities[i].TripID]
	}
	return activities, nil
}

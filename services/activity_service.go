package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonpro-frontdesk/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityService appends to and reads the per-client activity timeline.
type ActivityService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Log inserts entry. When tx is non-nil the insert joins that transaction so
// it commits or rolls back with the change it describes.
func (s *ActivityService) Log(ctx context.Context, tx *gorm.DB, entry *models.Activity) error {
	if entry == nil || entry.CustomerID == uuid.Nil || entry.SalonID == uuid.Nil || entry.Type == "" || entry.Title == "" {
		return fmt.Errorf("log activity: %w", ErrInvalidInput)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if tx == nil {
		tx = s.db
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// ListForCustomer returns the customer's timeline, newest first.
func (s *ActivityService) ListForCustomer(ctx context.Context, salonID, customerID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).Select("id").
		Where("salon_id = ? AND id = ?", salonID, customerID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	var activities []models.Activity
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND customer_id = ?", salonID, customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// Recent returns the latest activities across the salon.
func (s *ActivityService) Recent(ctx context.Context, salonID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	var activities []models.Activity
	if err := s.db.WithContext(ctx).
		Where("salon_id = ?", salonID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	return activities, nil
}

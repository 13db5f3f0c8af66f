package repository

import (
	"context"
	"fmt"

	"pwarestaurants/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	GetRatingsFor(ctx context.Context, restaurantID int64) ([]models.Rating, error)
	CreateRating(ctx context.Context, rating *models.Rating) error
	DeleteRating(ctx context.Context, restaurantID int64, ratingDate string) error
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// GetRatingsFor returns the ratings of a restaurant, newest first. The
// order is on the stored date string, so it is only chronological within
// one month.
func (r *ratingRepository) GetRatingsFor(ctx context.Context, restaurantID int64) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("rating_date DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("get ratings for restaurant %d: %w", restaurantID, err)
	}
	return ratings, nil
}

// CreateRating inserts the rating, replacing any rating with the same
// restaurant and timestamp
func (r *ratingRepository) CreateRating(ctx context.Context, rating *models.Rating) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "rating_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment"}),
		}).
		Create(rating).Error
	if err != nil {
		return fmt.Errorf("create rating: %w", err)
	}
	return nil
}

// DeleteRating removes one rating by its key
func (r *ratingRepository) DeleteRating(ctx context.Context, restaurantID int64, ratingDate string) error {
	result := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND rating_date = ?", restaurantID, ratingDate).
		Delete(&models.Rating{})
	if result.Error != nil {
		return fmt.Errorf("delete rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"pwarestaurants/internal/http-api/models"

	"gorm.io/gorm"
)

type RestaurantRepository interface {
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	ListTopRated(ctx context.Context, limit int) ([]models.TopRestaurant, error)
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
	FindRestaurantByName(ctx context.Context, name string, foldCase bool) (*models.Restaurant, error)
	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error
	UpdateRestaurant(ctx context.Context, id int64, patch RestaurantPatch) error
}

// RestaurantPatch lists the columns to change; nil fields are left alone.
type RestaurantPatch struct {
	Name        *string
	Description *string
	Icon        *string
}

// Empty reports whether the patch would change nothing.
func (p RestaurantPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Icon == nil
}

// Columns maps the set fields to their column names.
func (p RestaurantPatch) Columns() map[string]any {
	cols := make(map[string]any, 3)
	if p.Name != nil {
		cols["restaurant_name"] = *p.Name
	}
	if p.Description != nil {
		cols["restaurant_description"] = *p.Description
	}
	if p.Icon != nil {
		cols["restaurant_icon"] = *p.Icon
	}
	return cols
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

// topRatedQuery only ranks restaurants that have at least one rating.
const topRatedQuery = `
SELECT r.restaurant_id, r.restaurant_name, r.restaurant_description, r.restaurant_icon,
       AVG(rr.rating) AS avg_rating, COUNT(rr.rating) AS cnt
FROM restaurant r
JOIN restaurant_rating rr ON rr.restaurant_id = r.restaurant_id
GROUP BY r.restaurant_id, r.restaurant_name, r.restaurant_description, r.restaurant_icon
HAVING COUNT(rr.rating) > 0
ORDER BY avg_rating DESC, cnt DESC, r.restaurant_id ASC
LIMIT ?`

// ListRestaurants returns id and name of every restaurant in insertion order
func (r *restaurantRepository) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := r.db.WithContext(ctx).
		Select("restaurant_id", "restaurant_name").
		Order("restaurant_id ASC").
		Find(&restaurants).Error
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}

// ListTopRated returns up to limit restaurants ordered by average rating,
// then by number of ratings
func (r *restaurantRepository) ListTopRated(ctx context.Context, limit int) ([]models.TopRestaurant, error) {
	var top []models.TopRestaurant
	if err := r.db.WithContext(ctx).Raw(topRatedQuery, limit).Scan(&top).Error; err != nil {
		return nil, fmt.Errorf("list top rated restaurants: %w", err)
	}
	return top, nil
}

// GetRestaurant retrieves a restaurant by id
func (r *restaurantRepository) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).First(&restaurant, "restaurant_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	return &restaurant, nil
}

// FindRestaurantByName matches the name exactly, or ignoring case when
// foldCase is set. The oldest match wins if legacy rows share a name.
func (r *restaurantRepository) FindRestaurantByName(ctx context.Context, name string, foldCase bool) (*models.Restaurant, error) {
	query := r.db.WithContext(ctx)
	if foldCase {
		query = query.Where("LOWER(restaurant_name) = LOWER(?)", name)
	} else {
		query = query.Where("restaurant_name = ?", name)
	}

	var restaurant models.Restaurant
	if err := query.Order("restaurant_id ASC").First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find restaurant by name: %w", err)
	}
	return &restaurant, nil
}

// CreateRestaurant inserts the restaurant and fills in its new id
func (r *restaurantRepository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	if err := r.db.WithContext(ctx).Omit("Ratings").Create(restaurant).Error; err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}
	return nil
}

// UpdateRestaurant applies the non-nil fields of patch
func (r *restaurantRepository) UpdateRestaurant(ctx context.Context, id int64, patch RestaurantPatch) error {
	if patch.Empty() {
		return ErrNoFieldsProvided
	}

	result := r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("restaurant_id = ?", id).
		Updates(patch.Columns())
	if result.Error != nil {
		return fmt.Errorf("update restaurant %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package database

import (
	"context"
	"fmt"

	"pwarestaurants/internal/http-api/models"

	"gorm.io/gorm"
)

// seedDate is the fixed timestamp of the demo ratings.
const seedDate = "01/12/2025 00:00:01"

func seedRestaurants() []models.Restaurant {
	return []models.Restaurant{
		{Name: "Restaurant A", Description: "A restaurant offers Korean BBQ"},
		{Name: "Restaurant B", Description: "A restaurant offers Australian BBQ"},
		{Name: "Restaurant C", Description: "A restaurant offers Japanese BBQ"},
	}
}

func ptr(s string) *string { return &s }

// Seed inserts the demo restaurants with one rating each. It expects an
// empty schema, see Reset.
func Seed(ctx context.Context, db *gorm.DB) error {
	restaurants := seedRestaurants()
	ratings := []struct {
		value   float64
		comment string
	}{
		{4.5, "Great food!"},
		{4.5, "Great food!"},
		{3, "Just Ok!"},
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range restaurants {
			if err := tx.Create(&restaurants[i]).Error; err != nil {
				return fmt.Errorf("seed restaurant %q: %w", restaurants[i].Name, err)
			}
			rating := models.Rating{
				RestaurantID: restaurants[i].ID,
				RatingDate:   seedDate,
				Rating:       ratings[i].value,
				Comment:      ptr(ratings[i].comment),
			}
			if err := tx.Create(&rating).Error; err != nil {
				return fmt.Errorf("seed rating for %q: %w", restaurants[i].Name, err)
			}
		}
		return nil
	})
}

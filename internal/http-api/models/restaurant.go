package models

type Restaurant struct {
	ID          int64   `json:"restaurant_id" gorm:"column:restaurant_id;primaryKey;autoIncrement"`
	Name        string  `json:"restaurant_name" gorm:"column:restaurant_name;not null;index"`
	Description string  `json:"restaurant_description" gorm:"column:restaurant_description"`
	Icon        *string `json:"restaurant_icon" gorm:"column:restaurant_icon"`

	// Associations
	Ratings []Rating `json:"-" gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;"`
}

func (Restaurant) TableName() string {
	return "restaurant"
}

// TopRestaurant is a restaurant row joined with its rating aggregate.
type TopRestaurant struct {
	ID          int64   `json:"restaurant_id" gorm:"column:restaurant_id"`
	Name        string  `json:"restaurant_name" gorm:"column:restaurant_name"`
	Description string  `json:"restaurant_description" gorm:"column:restaurant_description"`
	Icon        *string `json:"restaurant_icon" gorm:"column:restaurant_icon"`
	AvgRating   float64 `json:"avg_rating" gorm:"column:avg_rating"`
	Count       int64   `json:"cnt" gorm:"column:cnt"`
}

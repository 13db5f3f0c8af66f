package models

// RatingDateLayout is the day-first timestamp stored in rating_date.
// It also forms half of the rating's primary key, so two submissions
// for the same restaurant within one second collapse into one row.
const RatingDateLayout = "02/01/2006 15:04:05"

type Rating struct {
	RestaurantID int64   `json:"restaurant_id" gorm:"column:restaurant_id;primaryKey;autoIncrement:false"`
	RatingDate   string  `json:"rating_date" gorm:"column:rating_date;primaryKey"`
	Rating       float64 `json:"rating" gorm:"column:rating;not null;check:rating >= 0 AND rating <= 5"`
	Comment      *string `json:"comment" gorm:"column:comment"`
}

func (Rating) TableName() string {
	return "restaurant_rating"
}

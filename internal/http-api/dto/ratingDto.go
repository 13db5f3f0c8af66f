package dto

import "pwarestaurants/internal/http-api/models"

// SubmitRatingInput holds the raw form values of a rating submission.
// Rating stays a string so the service decides what counts as a number.
type SubmitRatingInput struct {
	RestaurantName string
	Rating         string
	Comment        string
	// Description is only used when the restaurant has to be created.
	Description *string
}

type SubmitRatingResponse struct {
	Success      bool   `json:"success"`
	RestaurantID int64  `json:"restaurant_id"`
	RatingDate   string `json:"rating_date"`
}

// RatingResponse for the detail view
type RatingResponse struct {
	RatingDate string  `json:"rating_date"`
	Rating     float64 `json:"rating"`
	Comment    *string `json:"comment"`
}

// FromModelToRatingResponse converts a Rating model to RatingResponse DTO
func FromModelToRatingResponse(rating *models.Rating) RatingResponse {
	return RatingResponse{
		RatingDate: rating.RatingDate,
		Rating:     rating.Rating,
		Comment:    rating.Comment,
	}
}

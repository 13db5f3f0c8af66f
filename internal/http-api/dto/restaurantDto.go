package dto

import "pwarestaurants/internal/http-api/models"

// RestaurantSummary is one entry of the restaurant list.
type RestaurantSummary struct {
	ID   int64  `json:"restaurant_id"`
	Name string `json:"restaurant_name"`
}

// RestaurantResponse for returning a single restaurant
type RestaurantResponse struct {
	ID          int64   `json:"restaurant_id"`
	Name        string  `json:"restaurant_name"`
	Description string  `json:"restaurant_description"`
	Icon        *string `json:"restaurant_icon"`
}

// RestaurantDetailResponse is the restaurant with all of its ratings, newest first.
type RestaurantDetailResponse struct {
	Restaurant RestaurantResponse `json:"restaurant"`
	Ratings    []RatingResponse   `json:"ratings"`
}

// UpdateRestaurantInput carries the form fields of PUT and PATCH.
// A nil field was not sent.
type UpdateRestaurantInput struct {
	Name        *string
	Description *string
	// RequireName is set for PUT, which must carry restaurant_name.
	RequireName bool
}

// UpdateRestaurantResponse is returned by PATCH; PUT only reports success.
type UpdateRestaurantResponse struct {
	Success bool           `json:"success"`
	Changes map[string]any `json:"changes,omitempty"`
}

// FromModelToSummary converts a Restaurant model to RestaurantSummary DTO
func FromModelToSummary(r *models.Restaurant) RestaurantSummary {
	return RestaurantSummary{ID: r.ID, Name: r.Name}
}

// FromModelToRestaurantResponse converts a Restaurant model to RestaurantResponse DTO
func FromModelToRestaurantResponse(r *models.Restaurant) RestaurantResponse {
	return RestaurantResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
	}
}

func NewRestaurantDetailResponse(r *models.Restaurant, ratings []models.Rating) *RestaurantDetailResponse {
	resp := &RestaurantDetailResponse{
		Restaurant: FromModelToRestaurantResponse(r),
		Ratings:    make([]RatingResponse, 0, len(ratings)),
	}
	for i := range ratings {
		resp.Ratings = append(resp.Ratings, FromModelToRatingResponse(&ratings[i]))
	}
	return resp
}

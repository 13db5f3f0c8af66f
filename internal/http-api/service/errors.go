package service

import "errors"

var (
	ErrInvalidName        = errors.New("missing or invalid restaurant name")
	ErrInvalidRating      = errors.New("rating must be a number between 0 and 5")
	ErrNoFieldsProvided   = errors.New("no fields provided for update")
	ErrNameTaken          = errors.New("restaurant name already in use")
	ErrInvalidRatingDate  = errors.New("missing rating date")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrRatingNotFound     = errors.New("rating not found")
)

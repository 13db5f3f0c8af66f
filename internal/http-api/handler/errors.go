package handler

import (
	"errors"
	"net/http"

	"pwarestaurants/internal/http-api/middleware"
	"pwarestaurants/internal/http-api/service"
	"pwarestaurants/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidRestaurantID = "Invalid restaurant id"
	msgRestaurantNotFound  = "Restaurant not found"
	msgRatingNotFound      = "Rating not found"
	msgInvalidName         = "Missing or invalid restaurant_name"
	msgInvalidRating       = "Rating must be a number between 0 and 5"
	msgNoFields            = "No fields provided for update"
	msgNameTaken           = "Another restaurant already uses this name"
	msgMissingRatingDate   = "Missing rating date"

	msgFetchRestaurants = "Failed to fetch restaurants"
	msgFetchTop         = "Failed to fetch top restaurants"
	msgFetchDetails     = "Failed to fetch restaurant details"
	msgAddRating        = "Failed to add rating"
	msgUpdateRestaurant = "Failed to update restaurant"
	msgDeleteRating     = "Failed to delete rating"
)

// errInvalidUpload covers malformed or oversized multipart bodies.
var errInvalidUpload = errors.New("invalid upload")

var clientErrors = []struct {
	err    error
	status int
	msg    string
}{
	{service.ErrInvalidName, http.StatusBadRequest, msgInvalidName},
	{service.ErrInvalidRating, http.StatusBadRequest, msgInvalidRating},
	{service.ErrNoFieldsProvided, http.StatusBadRequest, msgNoFields},
	{service.ErrNameTaken, http.StatusBadRequest, msgNameTaken},
	{service.ErrInvalidRatingDate, http.StatusBadRequest, msgMissingRatingDate},
	{service.ErrRestaurantNotFound, http.StatusNotFound, msgRestaurantNotFound},
	{service.ErrRatingNotFound, http.StatusNotFound, msgRatingNotFound},
}

// respondError maps service errors to HTTP responses. Anything unknown is
// logged with the request id and answered with the route's generic message.
func respondError(c *gin.Context, log logrus.FieldLogger, err error, fallback string) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			c.JSON(ce.status, gin.H{"error": ce.msg})
			return
		}
	}

	// icon and upload errors carry their own detail
	if errors.Is(err, storage.ErrInvalidIcon) || errors.Is(err, errInvalidUpload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.Logger(c, log).WithError(err).Error(fallback)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

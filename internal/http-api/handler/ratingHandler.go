package handler

import (
	"context"
	"net/http"
	"strings"

	"pwarestaurants/internal/http-api/dto"
	"pwarestaurants/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RatingHandler struct {
	ratingService service.RatingService
	log           logrus.FieldLogger
	maxUpload     int64
}

func NewRatingHandler(ratingService service.RatingService, log logrus.FieldLogger, maxUpload int64) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		log:           log,
		maxUpload:     maxUpload,
	}
}

// RegisterRoutes registers rating routes; write runs before every route here
func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup, write ...gin.HandlerFunc) {
	router.POST("/restaurant/rating", withMiddleware(write, h.Submit)...)
	// the rating date contains slashes, so it is taken as a catch-all
	router.DELETE("/rating/:restaurant_id/*rating_date", withMiddleware(write, h.Delete)...)
}

// Submit adds a rating, creating the restaurant when the name is new
// POST /api/restaurant/rating
func (h *RatingHandler) Submit(c *gin.Context) {
	icon, err := parseUpload(c, h.maxUpload)
	if err != nil {
		respondError(c, h.log, err, msgAddRating)
		return
	}

	input := dto.SubmitRatingInput{
		RestaurantName: c.PostForm("restaurant_name"),
		Rating:         c.PostForm("rating"),
		Comment:        c.PostForm("comment"),
		Description:    optionalForm(c, "restaurant_description"),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.ratingService.Submit(ctx, input, icon)
	if err != nil {
		respondError(c, h.log, err, msgAddRating)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete removes one rating
// DELETE /api/rating/:restaurant_id/:rating_date
func (h *RatingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "restaurant_id")
	if !ok {
		return
	}
	ratingDate := strings.TrimPrefix(c.Param("rating_date"), "/")

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.ratingService.Delete(ctx, id, ratingDate); err != nil {
		respondError(c, h.log, err, msgDeleteRating)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rating deleted successfully"})
}

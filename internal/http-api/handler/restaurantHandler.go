package handler

import (
	"context"
	"net/http"
	"strconv"

	"pwarestaurants/internal/http-api/dto"
	"pwarestaurants/internal/http-api/models"
	"pwarestaurants/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RestaurantHandler struct {
	restaurantService service.RestaurantService
	log               logrus.FieldLogger
	maxUpload         int64
}

func NewRestaurantHandler(restaurantService service.RestaurantService, log logrus.FieldLogger, maxUpload int64) *RestaurantHandler {
	return &RestaurantHandler{
		restaurantService: restaurantService,
		log:               log,
		maxUpload:         maxUpload,
	}
}

// RegisterRoutes registers restaurant routes; write runs before PUT and PATCH
func (h *RestaurantHandler) RegisterRoutes(router *gin.RouterGroup, write ...gin.HandlerFunc) {
	router.GET("/restaurants", h.List)
	router.GET("/restaurants/top", h.TopRated)
	router.GET("/restaurant/:id", h.Get)
	router.PUT("/restaurant/:id", withMiddleware(write, h.Replace)...)
	router.PATCH("/restaurant/:id", withMiddleware(write, h.Patch)...)
}

// List returns id and name of every restaurant
// GET /api/restaurants
func (h *RestaurantHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	restaurants, err := h.restaurantService.List(ctx)
	if err != nil {
		respondError(c, h.log, err, msgFetchRestaurants)
		return
	}

	resp := make([]dto.RestaurantSummary, 0, len(restaurants))
	for i := range restaurants {
		resp = append(resp, dto.FromModelToSummary(&restaurants[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// TopRated returns the best rated restaurants
// GET /api/restaurants/top?limit=N
func (h *RestaurantHandler) TopRated(c *gin.Context) {
	// missing, malformed and non-positive limits all mean "default"
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = 0
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	rows, err := h.restaurantService.TopRated(ctx, limit)
	if err != nil {
		respondError(c, h.log, err, msgFetchTop)
		return
	}
	if rows == nil {
		rows = []models.TopRestaurant{}
	}
	c.JSON(http.StatusOK, rows)
}

// Get returns a restaurant with its ratings
// GET /api/restaurant/:id
func (h *RestaurantHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	detail, err := h.restaurantService.GetDetail(ctx, id)
	if err != nil {
		respondError(c, h.log, err, msgFetchDetails)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Replace updates a restaurant; restaurant_name is required
// PUT /api/restaurant/:id
func (h *RestaurantHandler) Replace(c *gin.Context) {
	if _, ok := h.update(c, true); ok {
		c.JSON(http.StatusOK, dto.UpdateRestaurantResponse{Success: true})
	}
}

// Patch updates only the fields that were sent
// PATCH /api/restaurant/:id
func (h *RestaurantHandler) Patch(c *gin.Context) {
	if changes, ok := h.update(c, false); ok {
		c.JSON(http.StatusOK, dto.UpdateRestaurantResponse{Success: true, Changes: changes})
	}
}

func (h *RestaurantHandler) update(c *gin.Context, requireName bool) (map[string]any, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	icon, err := parseUpload(c, h.maxUpload)
	if err != nil {
		respondError(c, h.log, err, msgUpdateRestaurant)
		return nil, false
	}
	input := dto.UpdateRestaurantInput{
		Name:        optionalForm(c, "restaurant_name"),
		Description: optionalForm(c, "restaurant_description"),
		RequireName: requireName,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	changes, err := h.restaurantService.Update(ctx, id, input, icon)
	if err != nil {
		respondError(c, h.log, err, msgUpdateRestaurant)
		return nil, false
	}
	return changes, true
}

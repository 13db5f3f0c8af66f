package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"pwarestaurants/internal/http-api/dto"
	"pwarestaurants/internal/http-api/models"
	"pwarestaurants/internal/http-api/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type RatingService interface {
	Submit(ctx context.Context, input dto.SubmitRatingInput, icon *multipart.FileHeader) (*dto.SubmitRatingResponse, error)
	Delete(ctx context.Context, restaurantID int64, ratingDate string) error
}

// findOrCreateTimeout bounds the lookup and insert shared by concurrent
// submissions for one name.
const findOrCreateTimeout = 5 * time.Second

type ratingService struct {
	sideEffects
	restaurantRepo repository.RestaurantRepository
	ratingRepo     repository.RatingRepository
	opts           Options

	// creating serializes find-or-create per restaurant name
	creating singleflight.Group
}

func NewRatingService(
	restaurantRepo repository.RestaurantRepository,
	ratingRepo repository.RatingRepository,
	icons IconStorage,
	cache TopRatedCache,
	opts Options,
) RatingService {
	opts = opts.withDefaults()
	return &ratingService{
		sideEffects:    sideEffects{icons: icons, cache: cache, log: opts.Logger},
		restaurantRepo: restaurantRepo,
		ratingRepo:     ratingRepo,
		opts:           opts,
	}
}

// ParseRating accepts a finite decimal number in [0, 5]. Hexadecimal forms
// such as 0x1p1 are rejected.
func ParseRating(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "xXpP_") {
		return 0, ErrInvalidRating
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidRating
	}
	if value < 0 || value > 5 {
		return 0, ErrInvalidRating
	}
	return value, nil
}

// Submit records a rating, creating the restaurant on first use of its
// name. The icon and description only apply to a newly created restaurant.
func (s *ratingService) Submit(ctx context.Context, input dto.SubmitRatingInput, icon *multipart.FileHeader) (*dto.SubmitRatingResponse, error) {
	name := strings.TrimSpace(input.RestaurantName)
	if name == "" {
		return nil, ErrInvalidName
	}
	value, err := ParseRating(input.Rating)
	if err != nil {
		return nil, err
	}
	if icon != nil {
		if err := s.icons.Validate(icon); err != nil {
			return nil, err
		}
	}

	restaurantID, err := s.findOrCreate(ctx, name, input.Description, icon)
	if err != nil {
		return nil, err
	}

	rating := &models.Rating{
		RestaurantID: restaurantID,
		RatingDate:   s.opts.Now().Format(models.RatingDateLayout),
		Rating:       value,
	}
	if strings.TrimSpace(input.Comment) != "" {
		comment := input.Comment
		rating.Comment = &comment
	}

	if err := s.ratingRepo.CreateRating(ctx, rating); err != nil {
		return nil, err
	}
	s.invalidateTopRated(ctx)

	s.log.WithFields(logrus.Fields{
		"restaurant_id": restaurantID,
		"rating_date":   rating.RatingDate,
	}).Info("rating added")

	return &dto.SubmitRatingResponse{
		Success:      true,
		RestaurantID: restaurantID,
		RatingDate:   rating.RatingDate,
	}, nil
}

// findOrCreate resolves name to a restaurant id. Concurrent calls for the
// same name share one lookup so only one of them can insert. The shared work
// runs detached from any single caller so one cancelled request cannot fail
// the others waiting on it; each caller still stops waiting on its own ctx.
func (s *ratingService) findOrCreate(ctx context.Context, name string, description *string, icon *multipart.FileHeader) (int64, error) {
	ch := s.creating.DoChan(nameKey(name, s.opts.FoldNames), func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), findOrCreateTimeout)
		defer cancel()

		existing, err := s.restaurantRepo.FindRestaurantByName(shared, name, s.opts.FoldNames)
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return int64(0), err
		}
		return s.createRestaurant(shared, name, description, icon)
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int64), nil
	}
}

func (s *ratingService) createRestaurant(ctx context.Context, name string, description *string, icon *multipart.FileHeader) (int64, error) {
	restaurant := &models.Restaurant{
		Name:        name,
		Description: normalizeDescription(description),
	}

	if icon != nil {
		iconName, err := s.icons.Save(icon)
		if err != nil {
			return 0, fmt.Errorf("save icon: %w", err)
		}
		restaurant.Icon = &iconName
	}

	if err := s.restaurantRepo.CreateRestaurant(ctx, restaurant); err != nil {
		if restaurant.Icon != nil {
			s.removeIcon(*restaurant.Icon)
		}
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"restaurant_id": restaurant.ID,
		"name":          restaurant.Name,
	}).Info("restaurant created")
	return restaurant.ID, nil
}

// Delete removes one rating by restaurant id and its stored timestamp
func (s *ratingService) Delete(ctx context.Context, restaurantID int64, ratingDate string) error {
	if strings.TrimSpace(ratingDate) == "" {
		return ErrInvalidRatingDate
	}

	if err := s.ratingRepo.DeleteRating(ctx, restaurantID, ratingDate); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRatingNotFound
		}
		return err
	}
	s.invalidateTopRated(ctx)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"pwarestaurants/internal/http-api/dto"
	"pwarestaurants/internal/http-api/models"
	"pwarestaurants/internal/http-api/repository"

	"github.com/sirupsen/logrus"
)

type RestaurantService interface {
	List(ctx context.Context) ([]models.Restaurant, error)
	TopRated(ctx context.Context, limit int) ([]models.TopRestaurant, error)
	GetDetail(ctx context.Context, id int64) (*dto.RestaurantDetailResponse, error)
	Update(ctx context.Context, id int64, input dto.UpdateRestaurantInput, icon *multipart.FileHeader) (map[string]any, error)
}

type restaurantService struct {
	sideEffects
	restaurantRepo repository.RestaurantRepository
	ratingRepo     repository.RatingRepository
	opts           Options
}

func NewRestaurantService(
	restaurantRepo repository.RestaurantRepository,
	ratingRepo repository.RatingRepository,
	icons IconStorage,
	cache TopRatedCache,
	opts Options,
) RestaurantService {
	opts = opts.withDefaults()
	return &restaurantService{
		sideEffects:    sideEffects{icons: icons, cache: cache, log: opts.Logger},
		restaurantRepo: restaurantRepo,
		ratingRepo:     ratingRepo,
		opts:           opts,
	}
}

// List returns id and name of every restaurant
func (s *restaurantService) List(ctx context.Context) ([]models.Restaurant, error) {
	return s.restaurantRepo.ListRestaurants(ctx)
}

// TopRated returns the best rated restaurants, served from the cache when
// one is configured
func (s *restaurantService) TopRated(ctx context.Context, limit int) ([]models.TopRestaurant, error) {
	if limit < 1 {
		limit = s.opts.DefaultTopLimit
	}

	if s.cache == nil {
		return s.restaurantRepo.ListTopRated(ctx, limit)
	}

	rows, gen, ok := s.cache.Get(ctx, limit)
	if ok {
		return rows, nil
	}

	rows, err := s.restaurantRepo.ListTopRated(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, limit, gen, rows)
	return rows, nil
}

// GetDetail returns a restaurant with its ratings, newest first
func (s *restaurantService) GetDetail(ctx context.Context, id int64) (*dto.RestaurantDetailResponse, error) {
	restaurant, err := s.restaurantRepo.GetRestaurant(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}

	ratings, err := s.ratingRepo.GetRatingsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewRestaurantDetailResponse(restaurant, ratings), nil
}

// Update changes name, description and icon of an existing restaurant and
// returns the applied changes by column name.
func (s *restaurantService) Update(ctx context.Context, id int64, input dto.UpdateRestaurantInput, icon *multipart.FileHeader) (map[string]any, error) {
	var patch repository.RestaurantPatch

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		patch.Name = &name
	} else if input.RequireName {
		return nil, ErrInvalidName
	}
	if input.Description != nil {
		desc := normalizeDescription(input.Description)
		patch.Description = &desc
	}
	if patch.Empty() && icon == nil {
		return nil, ErrNoFieldsProvided
	}
	if icon != nil {
		if err := s.icons.Validate(icon); err != nil {
			return nil, err
		}
	}

	existing, err := s.restaurantRepo.GetRestaurant(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}

	if patch.Name != nil {
		other, err := s.restaurantRepo.FindRestaurantByName(ctx, *patch.Name, s.opts.FoldNames)
		switch {
		case err == nil && other.ID != id:
			return nil, ErrNameTaken
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	var newIcon string
	if icon != nil {
		newIcon, err = s.icons.Save(icon)
		if err != nil {
			return nil, fmt.Errorf("save icon: %w", err)
		}
		patch.Icon = &newIcon
	}

	if err := s.restaurantRepo.UpdateRestaurant(ctx, id, patch); err != nil {
		s.removeIcon(newIcon)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}

	if newIcon != "" && existing.Icon != nil && *existing.Icon != newIcon {
		s.removeIcon(*existing.Icon)
	}
	s.invalidateTopRated(ctx)

	s.log.WithFields(logrus.Fields{
		"restaurant_id": id,
		"fields":        len(patch.Columns()),
	}).Info("restaurant updated")
	return patch.Columns(), nil
}

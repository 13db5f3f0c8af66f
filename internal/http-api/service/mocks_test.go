package service

import (
	"context"
	"mime/multipart"

	"pwarestaurants/internal/http-api/models"
	"pwarestaurants/internal/http-api/repository"

	"github.com/stretchr/testify/mock"
)

// --- MOCK REPOSITORIES ---

type MockRestaurantRepo struct {
	mock.Mock
}

func (m *MockRestaurantRepo) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepo) ListTopRated(ctx context.Context, limit int) ([]models.TopRestaurant, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TopRestaurant), args.Error(1)
}

func (m *MockRestaurantRepo) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepo) FindRestaurantByName(ctx context.Context, name string, foldCase bool) (*models.Restaurant, error) {
	args := m.Called(ctx, name, foldCase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepo) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	args := m.Called(ctx, restaurant)
	return args.Error(0)
}

func (m *MockRestaurantRepo) UpdateRestaurant(ctx context.Context, id int64, patch repository.RestaurantPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

type MockRatingRepo struct {
	mock.Mock
}

func (m *MockRatingRepo) GetRatingsFor(ctx context.Context, restaurantID int64) ([]models.Rating, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Rating), args.Error(1)
}

func (m *MockRatingRepo) CreateRating(ctx context.Context, rating *models.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *MockRatingRepo) DeleteRating(ctx context.Context, restaurantID int64, ratingDate string) error {
	args := m.Called(ctx, restaurantID, ratingDate)
	return args.Error(0)
}

// --- MOCK ICONS AND CACHE ---

type MockIcons struct {
	mock.Mock
}

func (m *MockIcons) Validate(fh *multipart.FileHeader) error {
	args := m.Called(fh)
	return args.Error(0)
}

func (m *MockIcons) Save(fh *multipart.FileHeader) (string, error) {
	args := m.Called(fh)
	return args.String(0), args.Error(1)
}

func (m *MockIcons) Remove(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, limit int) ([]models.TopRestaurant, int64, bool) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Bool(2)
	}
	return args.Get(0).([]models.TopRestaurant), args.Get(1).(int64), args.Bool(2)
}

func (m *MockCache) Set(ctx context.Context, limit int, gen int64, rows []models.TopRestaurant) {
	m.Called(ctx, limit, gen, rows)
}

func (m *MockCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

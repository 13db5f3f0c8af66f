package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pwarestaurants/database"
	"pwarestaurants/internal/cache"
	"pwarestaurants/internal/config"
	"pwarestaurants/internal/http-api/models"
	"pwarestaurants/internal/http-api/service"
	"pwarestaurants/internal/logger"
	"pwarestaurants/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ServerSuite struct {
	suite.Suite
	cfg    *config.Config
	db     *gorm.DB
	redis  *miniredis.Miniredis
	icons  *storage.IconStore
	router *gin.Engine
	now    time.Time
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	root := s.T().TempDir()

	s.cfg = &config.Config{
		GoEnv:                "test",
		HTTPHost:             "127.0.0.1",
		HTTPPort:             3000,
		DBDriver:             config.DriverSQLite,
		DatabaseURL:          filepath.Join(root, "db", "restaurant.db"),
		IconsDir:             filepath.Join(root, "frontend", "icons"),
		FrontendDir:          filepath.Join(root, "frontend"),
		UploadMaxSize:        64 * 1024,
		NameMatch:            config.NameMatchInsensitive,
		TopRatedDefaultLimit: 3,
		CacheTTL:             time.Minute,
		CORSOrigins:          []string{"*"},
	}
	log := logger.Discard()

	db, err := database.ConnectDB(s.cfg, log)
	s.Require().NoError(err)
	s.db = db

	icons, err := storage.NewIconStore(s.cfg.IconsDir, s.cfg.UploadMaxSize)
	s.Require().NoError(err)
	s.icons = icons
	s.Require().NoError(os.WriteFile(filepath.Join(s.cfg.FrontendDir, "index.html"), []byte("<h1>Restaurants</h1>"), 0o644))

	s.redis = miniredis.RunT(s.T())
	topCache, err := cache.NewTopRatedCache("redis://"+s.redis.Addr(), time.Minute, log)
	s.Require().NoError(err)
	s.T().Cleanup(func() { topCache.Close() })

	s.now = time.Date(2025, time.December, 3, 12, 0, 0, 0, time.Local)
	srv := New(Deps{
		Config: s.cfg,
		DB:     db,
		Log:    log,
		Icons:  icons,
		Cache:  topCache,
		Now:    func() time.Time { return s.now },
	})
	s.router = srv.Router
}

func (s *ServerSuite) TearDownTest() {
	s.NoError(database.Close(s.db))
}

// tick moves the clock so the next rating gets its own key.
func (s *ServerSuite) tick() {
	s.now = s.now.Add(time.Second)
}

func (s *ServerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ServerSuite) form(method, target string, fields map[string]string, iconName string, iconBody []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		s.Require().NoError(w.WriteField(k, v))
	}
	if iconName != "" {
		part, err := w.CreateFormFile("icon", iconName)
		s.Require().NoError(err)
		_, err = part.Write(iconBody)
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req)
}

func (s *ServerSuite) rate(name, rating, comment string) *httptest.ResponseRecorder {
	s.tick()
	return s.form(http.MethodPost, "/api/restaurant/rating", map[string]string{
		"restaurant_name": name,
		"rating":          rating,
		"comment":         comment,
	}, "", nil)
}

func (s *ServerSuite) get(target string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (s *ServerSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type detail struct {
	Restaurant struct {
		ID          int64   `json:"restaurant_id"`
		Name        string  `json:"restaurant_name"`
		Description string  `json:"restaurant_description"`
		Icon        *string `json:"restaurant_icon"`
	} `json:"restaurant"`
	Ratings []struct {
		RatingDate string  `json:"rating_date"`
		Rating     float64 `json:"rating"`
		Comment    *string `json:"comment"`
	} `json:"ratings"`
}

func (s *ServerSuite) detail(id string) detail {
	w := s.get("/api/restaurant/" + id)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var d detail
	s.decode(w, &d)
	return d
}

func (s *ServerSuite) countRatings() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.Rating{}).Count(&n).Error)
	return n
}

func (s *ServerSuite) iconFiles() []string {
	entries, err := os.ReadDir(s.cfg.IconsDir)
	s.Require().NoError(err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (s *ServerSuite) TestFirstRatingCreatesRestaurant() {
	w := s.rate("Noodle Bar", "4.5", "nice")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Success      bool   `json:"success"`
		RestaurantID int64  `json:"restaurant_id"`
		RatingDate   string `json:"rating_date"`
	}
	s.decode(w, &created)
	s.True(created.Success)
	s.Equal(int64(1), created.RestaurantID)
	s.Equal("03/12/2025 12:00:01", created.RatingDate)

	d := s.detail("1")
	s.Equal("Noodle Bar", d.Restaurant.Name)
	s.Equal(service.DefaultDescription, d.Restaurant.Description)
	s.Nil(d.Restaurant.Icon)
	s.Require().Len(d.Ratings, 1)
	s.Equal(4.5, d.Ratings[0].Rating)
	s.Require().NotNil(d.Ratings[0].Comment)
	s.Equal("nice", *d.Ratings[0].Comment)

	var top []models.TopRestaurant
	s.decode(s.get("/api/restaurants/top"), &top)
	s.Require().Len(top, 1)
	s.Equal(4.5, top[0].AvgRating)
	s.Equal(int64(1), top[0].Count)
}

func (s *ServerSuite) TestNamesMatchIgnoringCase() {
	s.Require().Equal(http.StatusCreated, s.rate("Noodle Bar", "4", "").Code)
	s.Require().Equal(http.StatusCreated, s.rate("  noodle BAR ", "2", "").Code)

	var list []map[string]any
	s.decode(s.get("/api/restaurants"), &list)
	s.Len(list, 1)

	d := s.detail("1")
	s.Equal("Noodle Bar", d.Restaurant.Name, "the first casing is kept")
	s.Len(d.Ratings, 2)
	s.Nil(d.Ratings[0].Comment, "blank comments are stored as null")
}

func (s *ServerSuite) TestInvalidRatingsWriteNothing() {
	for _, rating := range []string{"-1", "5.1", "", "abc"} {
		w := s.rate("Noodle Bar", rating, "")
		s.Equal(http.StatusBadRequest, w.Code, rating)
	}
	w := s.rate("   ", "3", "")
	s.Equal(http.StatusBadRequest, w.Code)

	s.Zero(s.countRatings())
	var list []map[string]any
	s.decode(s.get("/api/restaurants"), &list)
	s.Empty(list)
}

func (s *ServerSuite) TestSameSecondReplacesRating() {
	s.Require().Equal(http.StatusCreated, s.rate("Cafe X", "1", "first").Code)
	// same clock reading: the second submission takes the same key
	w := s.form(http.MethodPost, "/api/restaurant/rating", map[string]string{
		"restaurant_name": "Cafe X", "rating": "5", "comment": "second",
	}, "", nil)
	s.Require().Equal(http.StatusCreated, w.Code)

	d := s.detail("1")
	s.Require().Len(d.Ratings, 1)
	s.Equal(5.0, d.Ratings[0].Rating)
}

func (s *ServerSuite) TestDeleteRating() {
	created := s.rate("Cafe X", "3", "")
	s.Require().Equal(http.StatusCreated, created.Code)
	date := "03/12/2025 12:00:01"

	w := s.do(httptest.NewRequest(http.MethodDelete, "/api/rating/1/"+url.PathEscape("01/01/2000 00:00:00"), nil))
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(int64(1), s.countRatings(), "a miss leaves the table unchanged")

	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/rating/1/"+url.PathEscape(date), nil))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Zero(s.countRatings())

	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/rating/abc/"+url.PathEscape(date), nil))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerSuite) TestTopRatedRanking() {
	s.rate("A", "4", "")
	s.rate("B", "5", "")
	s.rate("C", "4", "")
	s.rate("C", "4", "")
	s.rate("Unrated", "1", "")
	// drop the only rating of "Unrated" so it has zero ratings
	w := s.do(httptest.NewRequest(http.MethodDelete, "/api/rating/4/"+url.PathEscape(s.now.Format(models.RatingDateLayout)), nil))
	s.Require().Equal(http.StatusOK, w.Code)

	var top []models.TopRestaurant
	s.decode(s.get("/api/restaurants/top?limit=2"), &top)
	s.Require().Len(top, 2)
	s.Equal("B", top[0].Name)
	s.Equal("C", top[1].Name)

	s.decode(s.get("/api/restaurants/top?limit=abc"), &top)
	s.Len(top, 3, "bad limits fall back to 3")
	for _, row := range top {
		s.Positive(row.Count)
	}
}

func (s *ServerSuite) TestTopRatedCacheIsInvalidated() {
	s.rate("A", "3", "")

	var top []models.TopRestaurant
	s.decode(s.get("/api/restaurants/top"), &top)
	s.Require().Len(top, 1)
	s.True(s.redis.Exists("restaurants:top"))

	s.rate("B", "5", "")
	s.False(s.redis.Exists("restaurants:top"))

	s.decode(s.get("/api/restaurants/top"), &top)
	s.Require().Len(top, 2)
	s.Equal("B", top[0].Name)
}

func (s *ServerSuite) TestUpdateDescription() {
	s.tick()
	w := s.form(http.MethodPost, "/api/restaurant/rating", map[string]string{
		"restaurant_name": "Cafe X", "rating": "4", "restaurant_description": "d1",
	}, "", nil)
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal("d1", s.detail("1").Restaurant.Description)

	w = s.form(http.MethodPatch, "/api/restaurant/1", map[string]string{"restaurant_description": "d2"}, "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"success":true,"changes":{"restaurant_description":"d2"}}`, w.Body.String())

	d := s.detail("1")
	s.Equal("d2", d.Restaurant.Description)
	s.Equal("Cafe X", d.Restaurant.Name)
}

func (s *ServerSuite) TestUpdateValidation() {
	s.rate("Cafe X", "4", "")
	s.rate("Noodle Bar", "4", "")

	w := s.form(http.MethodPatch, "/api/restaurant/1", nil, "", nil)
	s.Equal(http.StatusBadRequest, w.Code, "no fields and no file")

	w = s.form(http.MethodPut, "/api/restaurant/1", map[string]string{"restaurant_description": "x"}, "", nil)
	s.Equal(http.StatusBadRequest, w.Code, "PUT needs a name")

	w = s.form(http.MethodPatch, "/api/restaurant/1", map[string]string{"restaurant_name": "noodle bar"}, "", nil)
	s.Equal(http.StatusBadRequest, w.Code, "name belongs to another restaurant")

	w = s.form(http.MethodPatch, "/api/restaurant/99", map[string]string{"restaurant_name": "Elsewhere"}, "logo.png", []byte("png"))
	s.Equal(http.StatusNotFound, w.Code)
	s.Empty(s.iconFiles(), "no icon is written for a missing restaurant")

	w = s.form(http.MethodPut, "/api/restaurant/1", map[string]string{"restaurant_name": "Cafe Y"}, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"success":true}`, w.Body.String())
	s.Equal("Cafe Y", s.detail("1").Restaurant.Name)
}

func (s *ServerSuite) TestIcons() {
	s.tick()
	w := s.form(http.MethodPost, "/api/restaurant/rating", map[string]string{
		"restaurant_name": "Cafe X", "rating": "4",
	}, "logo.png", []byte("first icon"))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	d := s.detail("1")
	s.Require().NotNil(d.Restaurant.Icon)
	first := *d.Restaurant.Icon
	s.Equal([]string{first}, s.iconFiles())

	served := s.get("/icons/" + first)
	s.Equal(http.StatusOK, served.Code)
	s.Equal("first icon", served.Body.String())

	// an icon sent with a rating for an existing restaurant is ignored
	s.tick()
	w = s.form(http.MethodPost, "/api/restaurant/rating", map[string]string{
		"restaurant_name": "cafe x", "rating": "3",
	}, "other.png", []byte("ignored"))
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal([]string{first}, s.iconFiles())

	w = s.form(http.MethodPatch, "/api/restaurant/1", nil, "notes.txt", []byte("nope"))
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.form(http.MethodPatch, "/api/restaurant/1", nil, "new.webp", []byte("second icon"))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	d = s.detail("1")
	s.Require().NotNil(d.Restaurant.Icon)
	s.NotEqual(first, *d.Restaurant.Icon)
	s.Equal([]string{*d.Restaurant.Icon}, s.iconFiles(), "the old icon is removed")
}

func (s *ServerSuite) TestMissingRestaurant() {
	s.Equal(http.StatusNotFound, s.get("/api/restaurant/7").Code)
	s.Equal(http.StatusBadRequest, s.get("/api/restaurant/seven").Code)
}

func (s *ServerSuite) TestHealthAndStatic() {
	w := s.get("/check-conn")
	s.Equal(http.StatusOK, w.Code)

	w = s.get("/")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "<h1>Restaurants</h1>")

	w = s.get("/api/nothing-here")
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"error":"Not found"}`, w.Body.String())

	s.NotEmpty(w.Header().Get("X-Request-Id"))
}

func (s *ServerSuite) TestHealthReportsClosedDatabase() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())

	w := s.get("/check-conn")
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *ServerSuite) TestShutdownBeforeRun() {
	srv := New(Deps{Config: s.cfg, DB: s.db, Log: logger.Discard(), Icons: s.icons})
	s.NoError(srv.Shutdown(time.Second))
}

func (s *ServerSuite) TestRateLimitIgnoresForwardedForFromClients() {
	cfg := *s.cfg
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	router := New(Deps{Config: &cfg, DB: s.db, Log: logger.Discard(), Icons: s.icons}).Router

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/rating/1/"+url.PathEscape("01/12/2025 00:00:01"), nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	s.Equal(http.StatusNotFound, send("203.0.113.1"))
	s.Equal(http.StatusTooManyRequests, send("203.0.113.2"), "a new X-Forwarded-For must not reset the bucket")
}

func (s *ServerSuite) TestIconsServedFromStoreDir() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.icons.Dir(), "icon-1-abcdef12.png"), []byte("png"), 0o644))

	w := s.get("/icons/icon-1-abcdef12.png")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("png", w.Body.String())
}

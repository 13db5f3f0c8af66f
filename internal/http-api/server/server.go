package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pwarestaurants/database"
	"pwarestaurants/internal/config"
	"pwarestaurants/internal/http-api/handler"
	"pwarestaurants/internal/http-api/middleware"
	"pwarestaurants/internal/http-api/repository"
	"pwarestaurants/internal/http-api/service"
	"pwarestaurants/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	readTimeout       = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 2 * time.Minute
)

// Deps are the long-lived resources the server is built from. Icons also
// decides the directory behind /icons. Cache may be nil; Now defaults to
// time.Now.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *logrus.Logger
	Icons  *storage.IconStore
	Cache  service.TopRatedCache
	Now    func() time.Time
}

type Server struct {
	Router *gin.Engine
	server *http.Server
}

// New wires repositories, services and handlers into a gin router.
func New(deps Deps) *Server {
	cfg := deps.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	restaurantRepo := repository.NewRestaurantRepository(deps.DB)
	ratingRepo := repository.NewRatingRepository(deps.DB)

	opts := service.Options{
		FoldNames:       cfg.FoldNames(),
		DefaultTopLimit: cfg.TopRatedDefaultLimit,
		Logger:          deps.Log,
		Now:             deps.Now,
	}
	restaurantService := service.NewRestaurantService(restaurantRepo, ratingRepo, deps.Icons, deps.Cache, opts)
	ratingService := service.NewRatingService(restaurantRepo, ratingRepo, deps.Icons, deps.Cache, opts)

	r := gin.New()
	// ClientIP feeds the rate limiter, so forwarded headers are only honoured
	// from configured proxies.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		deps.Log.WithError(err).Warn("invalid TRUSTED_PROXIES, forwarded headers ignored")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/check-conn", func(c *gin.Context) {
		if err := database.Ping(deps.DB); err != nil {
			middleware.Logger(c, deps.Log).WithError(err).Error("database ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	})

	write := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	api := r.Group("/api")
	handler.NewRestaurantHandler(restaurantService, deps.Log, cfg.UploadMaxSize).RegisterRoutes(api, write)
	handler.NewRatingHandler(ratingService, deps.Log, cfg.UploadMaxSize).RegisterRoutes(api, write)

	r.Static("/icons", deps.Icons.Dir())
	if cfg.FrontendDir != "" {
		r.NoRoute(frontend(cfg.FrontendDir))
	}

	return &Server{
		Router: r,
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// frontend serves the static client for unmatched GET and HEAD requests.
// Unknown API paths still get a JSON 404.
func frontend(dir string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		method := c.Request.Method
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || (method != http.MethodGet && method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

// Run blocks serving HTTP until Shutdown is called.
func (svr *Server) Run() error {
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}

package server

import (
	"fmt"
	"net/http"
	"time"

	"mylover-shop/internal/config"
	"mylover-shop/internal/database"
	custommiddleware "mylover-shop/internal/middleware"
	"mylover-shop/internal/repository"
	"mylover-shop/internal/service"
	"mylover-shop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService *database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()
	db := dbService.DB()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"database": dbService.Health(r.Context()),
		})
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, auditLogRepo, logger)

	// Handlers
	authHandler := transport.NewAuthHandler(authService, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)
	categoryHandler := transport.NewCategoryHandler(catalogService, logger)
	shopHandler := transport.NewShopHandler(catalogService, logger)
	uploadHandler := transport.NewUploadHandler(cfg.Upload, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	loginRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		KeyPrefix:         "rl:auth",
	}, logger)

	router.Route("/api/auth", func(r chi.Router) {
		r.Use(loginRateLimit)
		authHandler.RegisterRoutes(r, authMiddleware)
	})

	router.Route("/api/shop", func(r chi.Router) {
		shopHandler.RegisterRoutes(r)
	})

	router.Route("/admin/api", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(custommiddleware.RequireRole(logger, "admin", "superadmin"))
		productHandler.RegisterRoutes(r)
		categoryHandler.RegisterRoutes(r)
		uploadHandler.RegisterRoutes(r)
	})

	// Uploaded images are served as static files.
	fileServer := http.StripPrefix(cfg.Upload.PublicPath, http.FileServer(http.Dir(cfg.Upload.Dir)))
	router.Get(cfg.Upload.PublicPath+"/*", func(w http.ResponseWriter, r *http.Request) {
		fileServer.ServeHTTP(w, r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     dbService,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/config"
	database "github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/db"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/storage"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/api/handlers"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/api/middleware"
)

type Server struct {
	cfg     *config.Config
	db      *database.Client
	storage *storage.Client
	router  *gin.Engine
}

func New(cfg *config.Config, db *database.Client, storage *storage.Client) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		db:      db,
		storage: storage,
		router:  gin.New(),
	}
	s.router.Use(middleware.SilentLogger(), gin.Recovery())

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}

	// "Authorization" must be allowed so the frontend can send the JWT
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	secret := []byte(s.cfg.Server.JWTSecret)

	authHandler := handlers.NewAuthHandler(s.db.DB, secret)
	videoHandler := handlers.NewVideoHandler(s.db.DB, s.cfg.Feed.DefaultLimit, s.cfg.Feed.MaxLimit)
	adminVideoHandler := handlers.NewAdminVideoHandler(s.db.DB, s.storage)
	authCodeHandler := handlers.NewAuthCodeHandler(s.db.DB)
	userHandler := handlers.NewUserHandler(s.db.DB)
	statsHandler := handlers.NewStatsHandler(s.db.DB)

	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "bubblegum"})
	})

	api := s.router.Group("/api")
	{
		// ==========================================
		// PUBLIC ROUTES (No Token Required)
		// ==========================================
		api.GET("/videos", videoHandler.ListVideos)
		api.GET("/videos/:id", videoHandler.GetVideo)
		api.POST("/videos/:id/view", videoHandler.RecordView)
		api.POST("/videos/:id/like", videoHandler.ToggleLike)

		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register", authHandler.Register) // gated by auth code

		// ==========================================
		// ADMIN ROUTES (JWT Token Required)
		// ==========================================
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(secret))
		{
			admin.POST("/videos", middleware.RequireRole("admin"), adminVideoHandler.UploadVideo)
			admin.PATCH("/videos/:id", middleware.RequireRole("admin"), adminVideoHandler.UpdateVideo)
			admin.DELETE("/videos/:id", middleware.RequireRole("admin"), adminVideoHandler.DeleteVideo)

			admin.GET("/stats", middleware.RequireRole("admin"), statsHandler.Dashboard)

			// --- SUPERADMIN ONLY ---
			admin.POST("/auth-codes", middleware.RequireRole("superadmin"), authCodeHandler.Create)
			admin.GET("/auth-codes", middleware.RequireRole("superadmin"), authCodeHandler.List)
			admin.POST("/auth-codes/:id/expire", middleware.RequireRole("superadmin"), authCodeHandler.Expire)
			admin.DELETE("/auth-codes/:id", middleware.RequireRole("superadmin"), authCodeHandler.Delete)

			admin.GET("/users", middleware.RequireRole("superadmin"), userHandler.ListUsers)
		}
	}
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

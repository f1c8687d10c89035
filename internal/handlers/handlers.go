package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/gemini"
	"github.com/Slydexx/esthetica-app/internal/middleware"
	"github.com/Slydexx/esthetica-app/internal/repository"
	"github.com/Slydexx/esthetica-app/internal/service"
	"github.com/Slydexx/esthetica-app/internal/storage"
)

type HandlerSet struct {
	log                zerolog.Logger
	cfg                *config.AppConfig
	authService        *service.AuthService
	intakeService      *service.IntakeService
	analysisService    *service.AnalysisService
	entitlementService *service.EntitlementService
	gemini             *gemini.Client
	db                 *pgxpool.Pool
	cache              *redis.Client
	store              *storage.ObjectStore
	users              *repository.UserRepository
	sessions           *repository.SessionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	geminiClient := gemini.NewClient(cfg.Gemini, log)

	auth := service.NewAuthService(userRepo, sessionRepo, entitlementRepo, cfg, log)
	intake := service.NewIntakeService(cache, cfg, log)
	analysis := service.NewAnalysisService(geminiClient, analysisRepo, cache, cfg, log)
	entitlement := service.NewEntitlementService(entitlementRepo, cfg, log)

	return HandlerSet{
		log:                log,
		cfg:                cfg,
		authService:        auth,
		intakeService:      intake,
		analysisService:    analysis,
		entitlementService: entitlement,
		gemini:             geminiClient,
		db:                 db,
		cache:              cache,
		store:              store,
		users:              userRepo,
		sessions:           sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	// Raw model proxy, mounted outside the versioned tree so the web client
	// can call it without an account.
	router.POST("/analyze", h.ProxyAnalyze)
	router.POST("/generate", h.ProxyGenerate)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.users, h.sessions))
		protected.GET("/me", h.Me)

		intake := v1.Group("/intake")
		intake.Use(middleware.OptionalAuth(h.cfg, h.users, h.sessions))
		intake.GET("/slots", h.IntakeSlots)
		intake.POST("/photos", h.IntakeUpload)
		intake.DELETE("/slots/:index", h.IntakeRemove)
		intake.DELETE("", h.IntakeClear)

		analysis := v1.Group("/analysis")
		analysis.Use(middleware.Auth(h.cfg, h.users, h.sessions))
		analysis.POST("", h.RunAnalysis)
		analysis.GET("/run", h.RunAnalysisSocket)
		analysis.GET("/last", h.LastAnalysis)
		analysis.DELETE("/last", h.ResetAnalysis)
		analysis.POST("/regenerate", h.RegenerateImage)

		payment := v1.Group("/payment")
		payment.Use(middleware.Auth(h.cfg, h.users, h.sessions))
		payment.POST("/confirm", h.ConfirmPayment)
	}
}

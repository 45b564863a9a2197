package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecoquest/ecoquest-api/docs"
	v1 "github.com/ecoquest/ecoquest-api/internal/api/handler/v1"
	"github.com/ecoquest/ecoquest-api/internal/api/middleware"
	"github.com/ecoquest/ecoquest-api/internal/cache"
	"github.com/ecoquest/ecoquest-api/internal/config"
	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/logger"
	"github.com/ecoquest/ecoquest-api/internal/metrics"
	"github.com/ecoquest/ecoquest-api/internal/repository"
	"github.com/ecoquest/ecoquest-api/internal/repository/dao"
	"github.com/ecoquest/ecoquest-api/internal/service"
)

type Server struct {
	Config  *config.AppConfig
	Router  *gin.Engine
	Live    *v1.LiveHandler
	Metrics *metrics.Metrics

	registry *prometheus.Registry
}

// NewServer wires every layer on top of db. redisClient may be nil, which
// disables the leaderboard cache.
func NewServer(conf *config.AppConfig, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	policy, err := badgePolicy(conf.Gamification)
	if err != nil {
		return nil, fmt.Errorf("badgePolicy -> %w", err)
	}
	levels := levelLadder(conf.Gamification)

	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()
	// ClientIP keys the login limiter, so forwarded headers count only from known proxies.
	if err = engine.SetTrustedProxies(conf.API.TrustedProxies); err != nil {
		return nil, fmt.Errorf("engine.SetTrustedProxies -> %w", err)
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		Config:   conf,
		Router:   engine,
		Metrics:  metrics.NewMetrics(registry),
		registry: registry,
	}

	s.MountMiddlewares()

	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	badgeRepo := repository.NewBadgeRepository(dao.NewBadgeDAO(db))
	challengeRepo := repository.NewChallengeRepository(dao.NewChallengeDAO(db))
	submissionRepo := repository.NewSubmissionRepository(dao.NewSubmissionDAO(db))

	var leaderboardCache service.LeaderboardCache
	if redisClient != nil {
		leaderboardCache = cache.NewLeaderboardCache(redisClient, conf.Redis.TTL)
	}

	userSvc := service.NewUserService(userRepo, badgeRepo, levels)
	leaderboardSvc := service.NewLeaderboardService(userRepo, leaderboardCache, levels)
	s.Live = v1.NewLiveHandler(leaderboardSvc, conf.API.AllowedCORSDomains)
	// The cache must be invalidated before the live feed re-reads it.
	accrualSvc := service.NewAccrualService(submissionRepo, policy, leaderboardSvc, s.Live, s.Metrics)

	s.MountHandlers(
		middleware.NewAuthenticator(conf.API.JWTSigningKey, userSvc),
		v1.NewAuthHandler(conf.API, service.NewAuthService(userRepo, levels)),
		v1.NewUserHandler(userSvc),
		v1.NewChallengeHandler(service.NewChallengeService(challengeRepo), accrualSvc),
		v1.NewLeaderboardHandler(leaderboardSvc),
	)

	return s, nil
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(logger.GinMiddleware())
	s.Router.Use(s.Metrics.GinMiddleware())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authenticator *middleware.Authenticator,
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	challengeHandler *v1.ChallengeHandler,
	leaderboardHandler *v1.LeaderboardHandler,
) {
	const basePath = "/api/v1"

	loginLimiter := middleware.NewIPRateLimiter(s.Config.API.LoginRateLimit, s.Config.API.LoginBurst)

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/register", authHandler.HandleRegister)
		auth.POST("/auth/login", middleware.RateLimit(loginLimiter), authHandler.HandleLogin)
	}

	users := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		users.GET("/users/profile", userHandler.HandleGetProfile)
		users.GET("/users/badges", userHandler.HandleGetBadges)
	}

	public := s.Router.Group(basePath)
	{
		public.GET("/leaderboard/:school", leaderboardHandler.HandleGetLeaderboard)
		public.GET("/leaderboard/:school/live", s.Live.HandleLiveLeaderboard)
		public.GET("/challenges", challengeHandler.HandleListChallenges)
		public.GET("/challenges/:challengeID", challengeHandler.HandleGetChallenge)
	}

	challenges := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		challenges.POST("/challenges", middleware.RequireRoles(domain.RoleTeacher, domain.RoleAdmin), challengeHandler.HandleCreateChallenge)
		challenges.POST("/challenges/:challengeID/submit", challengeHandler.HandleSubmitChallenge)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "EcoQuest API"
	docs.SwaggerInfo.Description = "Backend for a gamified environmental education platform."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	liveCtx, stopLive := context.WithCancel(ctx)
	defer stopLive()
	go s.Live.Run(liveCtx)

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("srv.ListenAndServe -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown -> %w", err)
	}

	return nil
}

func badgePolicy(conf *config.GamificationConfig) (domain.BadgePolicy, error) {
	if conf == nil || len(conf.Badges) == 0 {
		return domain.DefaultBadgePolicy(), nil
	}

	return domain.NewBadgePolicy(thresholds(conf.Badges))
}

func levelLadder(conf *config.GamificationConfig) domain.LevelLadder {
	if conf == nil || len(conf.Levels) == 0 {
		return domain.DefaultLevelLadder()
	}

	return domain.NewLevelLadder(thresholds(conf.Levels))
}

func thresholds(in []config.ThresholdConfig) []domain.BadgeThreshold {
	out := make([]domain.BadgeThreshold, 0, len(in))
	for _, t := range in {
		out = append(out, domain.BadgeThreshold{Points: t.Points, Name: t.Name})
	}

	return out
}

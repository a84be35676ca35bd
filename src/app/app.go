package app

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stepbuddy/backend/src/handler"
	"github.com/stepbuddy/backend/src/repository"
	"github.com/stepbuddy/backend/src/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/rs/zerolog"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Application struct {
	config              AppConfig
	database            *gorm.DB
	redis               *redis.Client
	VaultRepo           *repository.VaultRepository
	ChallengeService    *service.ChallengeService
	VerificationService *service.VerificationService
	RewardService       *service.RewardService
	TallyScheduler      *service.TallyScheduler
}

func NewApplication(ctx context.Context, config AppConfig) (*Application, error) {
	logger := zerolog.Ctx(ctx).With().Str("function", "NewApplication").Logger()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(*config.RedisAddr)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse redis URL")
		return nil, err
	}

	rdb := redis.NewClient(redisOpts)

	// Test Redis connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("connection to redis failed")
		return nil, err
	}
	logger.Info().Msg("Redis connection established")

	// Connect to database. TranslateError surfaces unique-index violations
	// as gorm.ErrDuplicatedKey, which the repositories rely on to reject
	// duplicate enrollments and challenge identifiers.
	database, err := gorm.Open(postgresDriver.Open(*config.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error().Err(err).Msg("connection to database failed")
		return nil, err
	}

	// Test database connection
	db, err := database.DB()
	if err != nil {
		logger.Error().Err(err).Msg("failed to get underlying database connection")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("connection to database failed")
		return nil, err
	}

	logger.Info().Msg("Database connection established")

	// run migration files
	MigrationUp(*config.DSN, *config.MigrationPath)

	challengeRepo := repository.NewChallengeRepository(database)
	participantRepo := repository.NewParticipantRepository(database)
	vaultRepo := repository.NewVaultRepository(database)
	challengeCache := repository.NewChallengeCacheRepository(rdb, "challenge_cache")

	challengeService := service.NewChallengeService(database, challengeRepo, participantRepo, vaultRepo, challengeCache)
	verificationService := service.NewVerificationService(database, challengeRepo, participantRepo)
	rewardService := service.NewRewardService(database, challengeRepo, participantRepo, vaultRepo, challengeCache)

	var tallyScheduler *service.TallyScheduler
	if config.OperatorAddress != nil {
		tallyScheduler = service.NewTallyScheduler(challengeRepo, rewardService, service.TallySchedulerConfig{
			Operator: *config.OperatorAddress,
			Interval: time.Duration(*config.TallyInterval) * time.Second,
		})
	}

	return &Application{
		config:              config,
		database:            database,
		redis:               rdb,
		VaultRepo:           vaultRepo,
		ChallengeService:    challengeService,
		VerificationService: verificationService,
		RewardService:       rewardService,
		TallyScheduler:      tallyScheduler,
	}, nil
}

func (app *Application) Shutdown(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("function", "Shutdown").Logger()

	// Close database connection
	if app.database != nil {
		db, err := app.database.DB()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to get underlying database connection")
		} else {
			if err := db.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close database connection")
			} else {
				logger.Info().Msg("Database connection closed")
			}
		}
	}

	// Close Redis connection
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close redis connection")
		} else {
			logger.Info().Msg("Redis connection closed")
		}
	}
}

func (app *Application) RunHTTPServer(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunHTTPServer").Logger()

	// Set to release mode to disable Gin logger
	gin.SetMode(gin.ReleaseMode)

	ginRouter := gin.Default()

	// Register routes
	app.registerRoutes(ctx, ginRouter)

	// Build HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", *app.config.Port),
		Handler: ginRouter,
	}

	// Start server in goroutine
	go func() {
		zerolog.Ctx(ctx).Info().Msgf("HTTP server is on http://localhost:%s/api/v1/health", *app.config.Port)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			zerolog.Ctx(ctx).Panic().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	logger.Info().Msg("Gracefully shutting down HTTP server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown HTTP server gracefully")
	} else {
		logger.Info().Msg("HTTP server shutdown complete")
	}
}

// RunTallyWorker runs the background tally scheduler until the context is
// cancelled. No-op when no operator address is configured.
func (app *Application) RunTallyWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunTallyWorker").Logger()

	if app.TallyScheduler == nil {
		logger.Info().Msg("No operator address configured, tally worker disabled")
		return
	}

	logger.Info().Msg("Starting tally worker")

	if err := app.TallyScheduler.Start(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("Tally worker terminated")
		return
	}

	logger.Info().Msg("Tally worker stopped")
}

func (app *Application) registerRoutes(ctx context.Context, router *gin.Engine) {

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if value, ok := field.Interface().(decimal.Decimal); ok {
				return value.String()
			}
			return nil
		}, decimal.Decimal{})
	}

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = *app.config.AllowOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-API-Secret", "X-Identity"}
	config.AllowCredentials = true

	router.Use(cors.New(config))

	handler.SetMiddlewares(ctx, router)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	challengeHandler := handler.NewChallengeHandler(app.ChallengeService)
	participantHandler := handler.NewParticipantHandler(app.ChallengeService, app.VerificationService)
	rewardHandler := handler.NewRewardHandler(app.RewardService)
	vaultHandler := handler.NewVaultHandler(app.VaultRepo)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handler.HandleHealthCheck)

		// Public read surface
		v1.GET("/challenges", challengeHandler.ListChallenges)
		v1.GET("/challenges/:id", challengeHandler.GetChallenge)
		v1.GET("/challenges/:id/participants", challengeHandler.ListParticipants)
		v1.GET("/challenges/:id/stats", challengeHandler.GetChallengeStats)
		v1.GET("/accounts/:address/balance", vaultHandler.GetBalance)

		// Everything that acts on behalf of an identity goes through the
		// gateway secret plus the forwarded identity header.
		secured := v1.Group("")
		secured.Use(handler.SharedSecretMiddleware(*app.config.APISecret), handler.IdentityMiddleware())
		{
			secured.POST("/challenges", challengeHandler.CreateChallenge)
			secured.POST("/challenges/:id/enroll", participantHandler.Enroll)
			secured.POST("/challenges/:id/verifications", participantHandler.SubmitVerification)
			secured.POST("/challenges/:id/tally", rewardHandler.Tally)
			secured.POST("/challenges/:id/withdraw", rewardHandler.Withdraw)
			secured.GET("/challenges/:id/payout", rewardHandler.PreviewPayout)
			secured.POST("/accounts/:address/deposit", vaultHandler.Deposit)
		}
	}
}

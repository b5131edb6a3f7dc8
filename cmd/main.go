package main

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ospiem/quizbee/config"
	"github.com/ospiem/quizbee/database"
	"github.com/ospiem/quizbee/internal/calculator"
	adminctrl "github.com/ospiem/quizbee/internal/controller/admin"
	webhookctrl "github.com/ospiem/quizbee/internal/controller/webhook"
	"github.com/ospiem/quizbee/internal/directory"
	"github.com/ospiem/quizbee/internal/gateway"
	"github.com/ospiem/quizbee/internal/logger"
	"github.com/ospiem/quizbee/internal/model"
	"github.com/ospiem/quizbee/internal/repository"
	"github.com/ospiem/quizbee/internal/router"
	"github.com/ospiem/quizbee/internal/schedule"
	"github.com/ospiem/quizbee/internal/scheduler"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			NewRand,
		),

		// Repositories layer
		fx.Provide(
			repository.NewQuestionRepository,
			repository.NewRecordRepository,
		),

		// Domain services
		fx.Provide(
			directory.NewDirectory,
			gateway.NewClient,
			NewCalculator,
			func(cfg *config.Config, questions repository.QuestionRepository, records repository.RecordRepository, rng *rand.Rand) scheduler.Generator {
				return scheduler.NewSmartGenerator(cfg, questions, records, rng)
			},
			gateway.NewFactory,
			router.NewPersonRouter,
			schedule.NewSchedule,
		),

		// API controllers layer
		fx.Provide(
			webhookctrl.NewWebhookController,
			adminctrl.NewQuestionController,
			adminctrl.NewStatisticsController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(StartSchedule),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	return r
}

// NewRand provides the selection strategies with a seedable source.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewCalculator picks the answer scorer: Gemini-backed semantic scoring when
// an API key is configured, plain exact-match grading otherwise.
func NewCalculator(cfg *config.Config) (model.PointsCalculator, error) {
	if cfg.GeminiApiKey != "" {
		return calculator.NewGeminiCalculator(cfg)
	}
	return calculator.NewSimpleCalculator(), nil
}

// RegisterRoutesAndStartServer configures API routes and manages the server
// lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	engine *gin.Engine,
	cfg *config.Config,
	webhookCtrl *webhookctrl.WebhookController,
	questionCtrl *adminctrl.QuestionController,
	statisticsCtrl *adminctrl.StatisticsController,
) {
	// Gateway events
	engine.POST("/webhook", webhookCtrl.Handle)

	// Admin routes
	adminAPIGroup := engine.Group("/api/v1/admin")
	{
		questionsGroup := adminAPIGroup.Group("/questions")
		questionsGroup.POST("", questionCtrl.CreateQuestion)
		questionsGroup.POST("/import", questionCtrl.ImportQuestions)
		questionsGroup.GET("", questionCtrl.GetAllQuestions)
		questionsGroup.GET("/:id", questionCtrl.GetQuestion)
		questionsGroup.DELETE("/:id", questionCtrl.DeleteQuestion)

		adminAPIGroup.GET("/statistics/person/:id", statisticsCtrl.GetPersonStatistics)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Question delivery server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Question{},
		&model.QuestionGroupAssociation{},
		&model.Record{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

// StartSchedule launches the periodic delivery loop with the app lifecycle.
func StartSchedule(lc fx.Lifecycle, sched *schedule.Schedule) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sched.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sched.Stop()
			return nil
		},
	})
}

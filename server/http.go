package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"singo-backend/config"
	"singo-backend/constant"
	"singo-backend/handler"
	"singo-backend/pkg/keydetect"
	"singo-backend/pkg/rabbitmq"
	"singo-backend/pkg/scoring"
	"singo-backend/pkg/separation"
	"singo-backend/repository"
	"singo-backend/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo := repository.NewRepo(cfg.DB)
	defer func() {
		if err := cfg.DB.Close(); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to close database")
		}
	}()

	transcoder := service.NewTranscoder(cfg.Upload.RootDir, cfg.Upload.FFmpegPath, cfg.Upload.TranscodeTimeout)
	scorer := scoring.NewClient(cfg.Services.ScoringURL, cfg.Services.ScoringTimeout)
	separator := separation.NewClient(cfg.Services.SeparationURL, cfg.Services.SeparationWindow)

	var publisher rabbitmq.Publisher
	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		// The pipeline degrades to log-only reconciliation without the queue.
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	} else {
		publisher = rabbitmq.NewPublisher(conn, cfg.Queue)

		reconcileConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, handler.ReconcileHandler)
		deps := handler.ServiceDependencies{
			ReconcileService: service.NewReconcileService(repo),
		}
		go func() {
			if err := reconcileConsumer.Consume(ctx, deps); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Reconcile consumer error")
			}
		}()
	}

	h := &handler.Handler{
		Repo:       repo,
		Submission: service.NewSubmissionService(repo, transcoder, scorer, publisher),
		Songs:      service.NewSongService(repo, separator, cfg.Storage, cfg.MinIOBucket),
		KeyDetect:  keydetect.NewClient(cfg.Services.KeyDetectURL),
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
	}

	r := gin.Default()
	addHealth(r)
	addRoutes(r, h)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addRoutes(r *gin.Engine, h *handler.Handler) {
	auth := r.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)

	private := r.Group("/private", h.Auth())
	private.POST("/record", h.UploadRecord)
	private.POST("/compare", h.CompareRecord)
	private.POST("/mistakes", h.Mistakes)
	private.GET("/history", h.History)
	private.GET("/leaderboard/:versionId", h.Leaderboard)
	private.GET("/user", h.Profile)
	private.POST("/user/key", h.UpdateKey)
	private.POST("/song", h.CreateSong)
	private.GET("/song", h.ListSongs)
	private.POST("/lyric", h.AddLyric)
	private.POST("/lyrics", h.GetLyrics)
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}

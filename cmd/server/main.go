package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bluesumk/mjjf/internal/cache"
	"github.com/bluesumk/mjjf/internal/config"
	"github.com/bluesumk/mjjf/internal/repository"
	"github.com/bluesumk/mjjf/internal/service"
	"github.com/bluesumk/mjjf/internal/transport/rest"
	"github.com/bluesumk/mjjf/internal/worker"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	log.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisURI
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("failed to ping Redis", zap.Error(err))
	}
	log.Info("connected to Redis")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(db)
	inviteRepo := repository.NewInviteRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	qrClient := service.NewQRClient(cfg.QREndpoint, cfg.RemoteTimeout, log)
	inviteSvc := service.NewInviteService(inviteRepo, sessionRepo, qrClient, log)
	sessionSvc := service.NewSessionService(sessionRepo, inviteSvc, sessionCache, leaderboard, log)

	// Invite side-table maintenance
	pruner := worker.NewPruner(inviteRepo, sessionRepo, cfg.InviteMaxAge, log)
	if err := pruner.Start(); err != nil {
		log.Fatal("failed to start pruner", zap.Error(err))
	}
	defer pruner.Stop()

	router := rest.NewRouter(&rest.Container{
		AuthService:    authSvc,
		SessionService: sessionSvc,
		InviteService:  inviteSvc,
		Leaderboard:    leaderboard,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen and serve", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"phenoqc/internal/config"
	"phenoqc/internal/database"
	httpapi "phenoqc/internal/http"
	"phenoqc/internal/logger"
	"phenoqc/internal/repository"
	"phenoqc/internal/service"
	"phenoqc/internal/session"
	"phenoqc/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "phenoqc")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)
	sessions := session.NewRedisValidator(kv, log)

	// Dev bootstrap: mint a session for a fixed user so the API is usable
	// without the auth service. SEED_SESSION_UID=7 prints the token.
	if uidStr := os.Getenv("SEED_SESSION_UID"); uidStr != "" {
		if uid, err := strconv.Atoi(uidStr); err == nil {
			seeder := session.NewSeeder(kv, cfg.Session.TTL)
			if token, err := seeder.Mint(context.Background(), uid); err == nil {
				log.Info("seeded dev session", zap.Int("uid", uid), zap.String("token", token))
			} else {
				log.Warn("failed to seed dev session", zap.Error(err))
			}
		}
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	issuesRepo := repository.NewPostgresIssuesRepository(db)
	contextsRepo := repository.NewPostgresContextsRepository(db)
	actionsRepo := repository.NewPostgresActionsRepository(db)
	historyRepo := repository.NewPostgresHistoryRepository(db)
	citationsRepo := repository.NewPostgresCitationsRepository(db)
	metadataRepo := repository.NewPostgresMetadataRepository(db)

	users := service.NewRestyUserDirectory(cfg.UserDirectory.BaseURL, cfg.UserDirectory.Timeout, log)

	issueSvc := service.NewIssueService(issuesRepo, actionsRepo, citationsRepo, users, log)
	contextSvc := service.NewContextService(contextsRepo, log)
	historySvc := service.NewHistoryService(historyRepo, users)
	metadataSvc := service.NewMetadataService(metadataRepo)

	router := httpapi.NewRouter(log)
	router.RegisterIssueRoutes(httpapi.NewIssueHandler(issueSvc, historySvc, sessions, log))
	router.RegisterActionRoutes(httpapi.NewActionHandler(issueSvc, sessions, log))
	router.RegisterContextRoutes(httpapi.NewContextHandler(contextSvc, issueSvc, historySvc, sessions, log))
	router.RegisterMetadataRoutes(httpapi.NewMetadataHandler(metadataSvc, sessions, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}

	_ = srv.Stop()
	_ = redisClient.Close()
	_ = db.Close()
}

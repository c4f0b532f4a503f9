package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/merev/scorecard-api/internal/auth"
	"github.com/merev/scorecard-api/internal/config"
	"github.com/merev/scorecard-api/internal/database"
	"github.com/merev/scorecard-api/internal/entrystate"
	"github.com/merev/scorecard-api/internal/game"
	apphttp "github.com/merev/scorecard-api/internal/http"
	"github.com/merev/scorecard-api/internal/profile"
)

func main() {
	cfg := config.Load()

	db, err := database.NewPool(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migration failed: %v", err)
	}
	cancel()

	var entries entrystate.Cache
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, keeping entry states in memory")
		entries = entrystate.NewMemoryCache()
	} else {
		rdb, err := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		entries = entrystate.NewRedisCache(rdb, cfg.EntryStateTTL)
	}

	svc := game.NewService(game.NewRepository(db), entries)
	gameHandler := game.NewHandler(svc, cfg.RequestTimeout)
	profileHandler := profile.NewHandler(profile.NewRepository(db), cfg.RequestTimeout)
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	router := apphttp.NewRouter(gameHandler, profileHandler, verifier)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("scorecard-api running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down scorecard-api...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

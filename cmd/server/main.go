package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"commission-ledger/internal/adapters/web"
	"commission-ledger/internal/cache"
	"commission-ledger/internal/config"
	"commission-ledger/internal/db"
	"commission-ledger/internal/service"
	"commission-ledger/internal/store"
	"commission-ledger/internal/store/memory"
	"commission-ledger/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		repo = postgres.New(pool)
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		repo = memory.New()
	}

	var statements cache.StatementCache = cache.NoopStatementCache{}
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisStatementCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Ping(ctx); err != nil {
			log.Printf("redis unreachable, statement cache disabled: %v", err)
		} else {
			defer rc.Close()
			statements = rc
		}
	}

	svc := service.New(repo, statements)
	handler := web.NewHandler(svc, cfg.Ledger.StatementLimit)

	log.Printf("server starting on %s", cfg.Address())
	if err := http.ListenAndServe(cfg.Address(), handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}

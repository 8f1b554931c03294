package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/f-lab-edu/retry-lee/internal/config"
	"github.com/f-lab-edu/retry-lee/internal/database"
	"github.com/f-lab-edu/retry-lee/internal/handler"
	"github.com/f-lab-edu/retry-lee/internal/queue"
	"github.com/f-lab-edu/retry-lee/internal/repository"
	"github.com/f-lab-edu/retry-lee/internal/router"
	"github.com/f-lab-edu/retry-lee/internal/service"
	"github.com/f-lab-edu/retry-lee/internal/utils"
)

func main() {
	// Local development keeps its settings in .env; absence is fine in
	// environments that inject real env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	accounts := repository.NewAccountRepo(db)
	users := repository.NewUserRepo(db)
	admins := repository.NewAdminRepo(db)
	accommodations := repository.NewAccommodationRepo(db)

	codec := utils.NewTokenCodec(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	resolver := service.NewResolver(users, admins)
	authSvc := service.NewAuth(accounts, resolver, codec, cfg.BcryptCost)
	accSvc := service.NewAccommodation(accommodations, queue.NewPublisher())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	go func() {
		if err := queue.StartAccommodationConsumer(); err != nil {
			log.Printf("accommodation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, router.Deps{
		Codec:          codec,
		Resolver:       resolver,
		Auth:           handler.NewAuthHandler(authSvc),
		Accommodations: handler.NewAccommodationHandler(accSvc),
		Redis:          rdb,
		Cache:          config.LoadCacheConfig(),
		RateLimit:      config.LoadRateLimitConfig(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/config"
    "github.com/iliyamo/cleanhome-marketplace/internal/database"
    "github.com/iliyamo/cleanhome-marketplace/internal/handler"
    appmw "github.com/iliyamo/cleanhome-marketplace/internal/middleware"
    "github.com/iliyamo/cleanhome-marketplace/internal/queue"
    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
    "github.com/iliyamo/cleanhome-marketplace/internal/router"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional infrastructure: when unreachable the client is nil
    // and both middlewares degrade to pass-through.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; rate limiting and response cache disabled")
    }

    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)
    reservationRepo := repository.NewReservationRepo(db)
    bidRepo := repository.NewBidRepo(db)
    evaluationRepo := repository.NewEvaluationRepo(db)

    authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
    clientHandler := handler.NewClientHandler(reservationRepo, bidRepo, evaluationRepo, userRepo)
    providerHandler := handler.NewProviderHandler(reservationRepo, bidRepo)
    reservationHandler := handler.NewReservationHandler(reservationRepo)
    publicHandler := handler.NewPublicHandler(userRepo, evaluationRepo)

    e := echo.New()
    e.HideBanner = true

    e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    e.Use(appmw.NewRedisCache(config.LoadCacheConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterClient(e, clientHandler, cfg.JWTSecret)
    router.RegisterProvider(e, providerHandler, cfg.JWTSecret)
    router.RegisterReservation(e, reservationHandler, cfg.JWTSecret)
    router.RegisterPublic(e, publicHandler)

    // Background consumer for assignment events; it reconnects on its own
    // and never takes the API down with it.
    go func() {
        if err := queue.StartAssignmentConsumer(); err != nil {
            log.Printf("assignment consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}

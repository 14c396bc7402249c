package main // entry point

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/stagelink/stagelink/internal/config"
    "github.com/stagelink/stagelink/internal/database"
    "github.com/stagelink/stagelink/internal/handler"
    "github.com/stagelink/stagelink/internal/middleware"
    "github.com/stagelink/stagelink/internal/queue"
    "github.com/stagelink/stagelink/internal/repository"
    "github.com/stagelink/stagelink/internal/router"
    queue_publisher "github.com/stagelink/stagelink/internal/service"
    "github.com/stagelink/stagelink/internal/workflow"
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

    // Redis backs the response cache and the rate limiter; nil simply
    // disables both.
    rdb := config.NewRedisClient()

    // Background consumer for verified-gig events.
    go func() {
        if err := queue.StartVerifiedConsumer(); err != nil {
            log.Printf("verified-consumer: %v", err)
        }
    }()

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    gigs := repository.NewGigRepo(db)
    apps := repository.NewApplicationRepo(db)
    venues := repository.NewVenueRepo(db)
    ensembles := repository.NewEnsembleRepo(db)
    messages := repository.NewMessageRepo(db)
    jamPosts := repository.NewJamPostRepo(db)
    stats := repository.NewStatsRepo(db)

    engine := workflow.NewEngine(db, queue_publisher.PublishGigVerified)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    gigH := handler.NewGigHandler(engine, gigs, apps, venues, ensembles)
    handshakeH := handler.NewHandshakeHandler(engine, gigs, apps, venues, ensembles)
    historyH := handler.NewHistoryHandler(gigs, apps, venues)
    venueH := handler.NewVenueHandler(venues)
    ensembleH := handler.NewEnsembleHandler(ensembles)
    chatH := handler.NewChatHandler(messages, users)
    jamH := handler.NewJamBoardHandler(jamPosts)
    musicianH := handler.NewMusicianHandler(users)
    adminH := handler.NewAdminHandler(users, gigs, venues, ensembles, stats)
    analyticsH := handler.NewAnalyticsHandler(users, venues, stats)

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, gigH, venueH, ensembleH, jamH, cacheMW)
    router.RegisterShared(e, chatH, handshakeH, cfg.JWTSecret)
    router.RegisterMusician(e, gigH, handshakeH, historyH, ensembleH, jamH, musicianH, analyticsH, cfg.JWTSecret)
    router.RegisterVenue(e, venueH, gigH, handshakeH, historyH, analyticsH, cfg.JWTSecret)
    router.RegisterAdmin(e, adminH, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}

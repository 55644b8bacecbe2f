package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/shibbu04/EventBook/internal/config"
	"github.com/shibbu04/EventBook/internal/database"
	"github.com/shibbu04/EventBook/internal/handler"
	"github.com/shibbu04/EventBook/internal/queue"
	"github.com/shibbu04/EventBook/internal/realtime"
	"github.com/shibbu04/EventBook/internal/repository"
	"github.com/shibbu04/EventBook/internal/router"
	"github.com/shibbu04/EventBook/internal/ticket"
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

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	// Realtime plumbing: one hub for SSE fan-out, one lock registry
	// sweeping expired advisory locks on a fixed interval.
	hub := realtime.NewHub()
	registry := realtime.NewLockRegistry(hub, cfg.SeatLockTTL, cfg.SeatLockSweepEvery)
	defer registry.Stop()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)

	qr := ticket.NewGenerator(cfg.QRSecret)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	eventH := handler.NewEventHandler(events)
	bookingH := handler.NewBookingHandler(bookings, events, qr, hub, cfg.MaxSeatsPerBooking, cfg.CancellationCutoff)
	adminUserH := handler.NewAdminUserHandler(users)
	realtimeH := realtime.NewHandler(hub, registry)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, eventH, config.LoadCacheConfig(), config.LoadRateLimitConfig(), rdb)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, eventH, adminUserH, bookingH, cfg.JWTSecret)
	router.RegisterRealtime(e, realtimeH, cfg.JWTSecret)

	// Broker consumer runs for the process lifetime with its own
	// reconnect loop.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

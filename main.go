package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	intconfig "taxibackend/internal/config"
	intdb "taxibackend/internal/db"
	router "taxibackend/internal/http"
	"taxibackend/internal/http/handlers"
	"taxibackend/internal/maps"
	"taxibackend/internal/notify"
	"taxibackend/internal/payments"
	"taxibackend/internal/repositories"
	"taxibackend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	loc := env.Location()

	db, err := intconfig.OpenDB(env)
	if err != nil {
		log.Fatalf("database unavailable: %v", err)
	}
	defer db.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.EnsureSchema(schemaCtx, db); err != nil {
		cancelSchema()
		log.Fatalf("ensure schema: %v", err)
	}
	cancelSchema()

	store := repositories.SQLStore{DB: db, CacheTTL: env.PricingCacheTTL}
	if env.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
		defer rdb.Close()
		store.Redis = rdb
		log.Printf("pricing cache enabled at %s", env.RedisAddr)
	}

	notifiers := notify.Fanout{notify.NewMailer(env)}
	if len(env.KafkaBrokers) > 0 {
		pub, err := notify.NewKafkaPublisher(env.KafkaBrokers, env.KafkaBookingTopic)
		if err != nil {
			log.Printf("WARNING: booking events disabled: %v", err)
		} else {
			defer pub.Close()
			notifiers = append(notifiers, pub)
		}
	}

	var notifying sync.WaitGroup
	gateway := payments.NewStripeGateway(env)
	tokens := services.Tokens{Secret: []byte(env.JWTSecret), TTL: env.JWTTTL}

	h := handlers.Handler{
		Users:      services.UserService{Store: store, Tokens: tokens},
		Drivers:    services.DriverService{Store: store},
		Vehicles:   services.VehicleService{Store: store},
		Pricing:    services.PricingService{Store: store, Loc: loc},
		Bookings:   services.BookingService{Store: store},
		Payments:   services.PaymentService{Store: store},
		Checkout:   services.CheckoutService{Store: store, Gateway: gateway, Loc: loc},
		Webhooks:   services.WebhookService{Store: store, Notifier: notifiers, Inflight: &notifying},
		Receipts:   services.ReceiptService{Store: store, Loc: loc, ProjectName: env.ProjectName},
		Gateway:    gateway,
		Directions: maps.NewGoogleClient(env.GoogleMapsAPIKey),
		Ping:       db.PingContext,
	}

	r := router.NewRouter(env, h, tokens)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	drained := make(chan struct{})
	go func() {
		notifying.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(30 * time.Second):
		log.Println("WARNING: confirmation notifications still running at exit")
	}

	log.Println("server stopped cleanly")
}

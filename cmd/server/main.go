package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/feastly/food_ordering/internal/config"
	"github.com/feastly/food_ordering/internal/es"
	"github.com/feastly/food_ordering/internal/handlers"
	"github.com/feastly/food_ordering/internal/handlers/cart"
	"github.com/feastly/food_ordering/internal/logging"
	loggingmw "github.com/feastly/food_ordering/internal/middleware/logging"
	"github.com/feastly/food_ordering/internal/mykafka"
	"github.com/feastly/food_ordering/internal/orders"
	httpserver "github.com/feastly/food_ordering/internal/transport/http"
)

func main() {
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	jwtSecret := []byte(configuration.JWT_SECRET)

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	engine := &orders.Engine{DB: db}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:                db,
		JWTSecret:         jwtSecret,
		ProductHandler:    &handlers.ProductHandler{DB: db, Producer: prod},
		RestaurantHandler: &handlers.RestaurantHandler{DB: db},
		CartHandler:       &cart.CartHandler{DB: db, Producer: prod, JWTSecret: jwtSecret},
		OrderHandler:      &handlers.OrderHandler{Engine: engine, Producer: prod, JWTSecret: jwtSecret},
		LoyaltyHandler:    &handlers.LoyaltyHandler{DB: db, Producer: prod, JWTSecret: jwtSecret},
		CouponHandler:     &handlers.CouponHandler{DB: db, Producer: prod},
		BonusHandler:      &handlers.BonusHandler{DB: db},
		AccountHandler:    &handlers.AccountHandler{DB: db, JWTSecret: jwtSecret},
		SearchHandler:     &handlers.SearchHandler{ES: esClient, Index: "product"},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}

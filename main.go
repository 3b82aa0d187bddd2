package main

import (
	"context"
	"log"
	"time"

	"github.com/fairwaybook/teetime-service/config"
	"github.com/fairwaybook/teetime-service/internal/cache"
	"github.com/fairwaybook/teetime-service/internal/consumer"
	"github.com/fairwaybook/teetime-service/internal/handler"
	"github.com/fairwaybook/teetime-service/internal/middleware"
	"github.com/fairwaybook/teetime-service/internal/repository"
	"github.com/fairwaybook/teetime-service/internal/service"
	"github.com/fairwaybook/teetime-service/internal/sweeper"
	"github.com/fairwaybook/teetime-service/pkg/database"
	"github.com/fairwaybook/teetime-service/pkg/rabbitmq"
	redisPkg "github.com/fairwaybook/teetime-service/pkg/redis"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Availability cache is optional; the service runs without Redis
	var availCache *cache.AvailabilityCache
	if cfg.RedisAddr != "" {
		client := redisPkg.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisPkg.Ping(ctx, client); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		cancel()
		availCache = cache.NewAvailabilityCache(client)
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// Repositories
	teeTimeRepo := repository.NewTeeTimeRepository(db)
	roomRepo := repository.NewHotelRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Service
	svc := service.NewReservationService(bookingRepo, teeTimeRepo, roomRepo, service.MockCharger{}, publisher, availCache)

	// RabbitMQ consumer: payment settlements confirm pending holds
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ consumer: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	consumer.NewPaymentConsumer(svc).Start(msgs)

	// Expired-hold sweeper
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper.New(svc, time.Duration(cfg.SweepIntervalSec)*time.Second).Start(sweepCtx)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = handler.NewValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "teetime-service"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewBookingHandler(svc).RegisterRoutes(e, middleware.Authenticate(cfg.JWTSecret))

	log.Printf("Tee Time Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}

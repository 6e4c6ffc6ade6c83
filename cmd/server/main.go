package main // Entry point package

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stayflow/reservation-ingestor/internal/config"
	"github.com/stayflow/reservation-ingestor/internal/database"
	"github.com/stayflow/reservation-ingestor/internal/handler"
	"github.com/stayflow/reservation-ingestor/internal/middleware"
	"github.com/stayflow/reservation-ingestor/internal/queue"
	"github.com/stayflow/reservation-ingestor/internal/repository"
	"github.com/stayflow/reservation-ingestor/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional outside dev

	cfg := config.Load()
	logg := config.NewLogger(cfg.LogLevel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logg.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db); err != nil {
		logg.WithError(err).Fatal("migrate schema")
	}

	customers := repository.NewCustomerRepo(db)
	hotels := repository.NewHotelRepo(db)
	reservations := repository.NewReservationRepo(db, customers, hotels)

	// The consumer runs beside the HTTP server for the lifetime of the
	// process; it owns reconnection and only returns on context cancel.
	consumer := queue.NewConsumer(cfg.AMQPURL, cfg.QueueName, cfg.Prefetch, reservations, logg)
	go func() {
		if err := consumer.Start(context.Background()); err != nil {
			logg.WithError(err).Fatal("consumer stopped")
		}
	}()

	e := echo.New()
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), config.NewRedisClient())
	router.RegisterRoutes(e, handler.NewReservationHandler(reservations, logg), cacheMW)

	addr := ":" + cfg.Port
	logg.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
	if err := e.Start(addr); err != nil {
		logg.WithError(err).Fatal("http server")
	}
}

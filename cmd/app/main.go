package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/vzorin/lockerbook/config"
	"github.com/vzorin/lockerbook/internal/bootstrap"
	"github.com/vzorin/lockerbook/internal/cache"
	"github.com/vzorin/lockerbook/internal/kafka"
	"github.com/vzorin/lockerbook/internal/metrics"
	"github.com/vzorin/lockerbook/internal/repository"
	"github.com/vzorin/lockerbook/internal/service/lockers"
	"github.com/vzorin/lockerbook/internal/service/reservations"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log := zerolog.New(output).With().Timestamp().Str("service", "app").Logger()

	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Lockers.CacheTTL())
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	store := repository.NewStore(pool)
	m := metrics.NewMetrics("lockerbook")

	reservationSvc := reservations.NewService(
		store,
		producer,
		cfg.Kafka.ReservationsTopic,
		log,
		reservations.WithMirror(redisCache),
		reservations.WithMetrics(m),
		reservations.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	lockerSvc := lockers.NewLockerService(store, redisCache, log)

	if err := bootstrap.Run(ctx, cfg, reservationSvc, lockerSvc, pool, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

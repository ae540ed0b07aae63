package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/vzorin/lockerbook/config"
	"github.com/vzorin/lockerbook/internal/cache"
	"github.com/vzorin/lockerbook/internal/kafka"
	"github.com/vzorin/lockerbook/internal/metrics"
	"github.com/vzorin/lockerbook/internal/notify"
	"github.com/vzorin/lockerbook/internal/repository"
	"github.com/vzorin/lockerbook/internal/service/reservations"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log := zerolog.New(output).With().Timestamp().Str("service", "worker").Logger()

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
	m := metrics.NewMetrics("lockerbook_worker")

	reservationSvc := reservations.NewService(
		store,
		producer,
		cfg.Kafka.ReservationsTopic,
		log,
		reservations.WithMirror(redisCache),
		reservations.WithMetrics(m),
		reservations.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if cfg.Worker.MetricsAddress != "" {
		startMetricsServer(ctx, cfg.Worker.MetricsAddress, log)
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := notify.NewSender(log)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.ReservationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Warn().Err(err).Msg("decode event")
				return nil
			}
			return sender.Send(ctx, event)
		}); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("consumer stopped")
		}
	}()

	// The sweep loop runs in the foreground: main cannot exit with a
	// batch still in flight. Run returns only between batches, after
	// ctx is canceled.
	sweeper := reservations.NewSweeper(reservationSvc, cfg.Worker.SweepInterval(), log)
	sweeper.Run(ctx)
}

func startMetricsServer(ctx context.Context, addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info().Str("address", addr).Msg("metrics server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

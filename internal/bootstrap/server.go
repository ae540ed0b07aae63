package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/vzorin/lockerbook/api"
	"github.com/vzorin/lockerbook/config"
	"github.com/vzorin/lockerbook/internal/service/lockers"
	"github.com/vzorin/lockerbook/internal/service/reservations"
)

// Pinger lets the readiness probe check the database without the
// bootstrap knowing the pool type.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Run starts the HTTP server and blocks until ctx is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, reservationSvc reservations.ReservationUseCase, lockerSvc lockers.LockerUseCase, db Pinger, log zerolog.Logger) error {
	router := newRouter(reservationSvc, lockerSvc, db)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("address", cfg.HTTP.Address).Msg("http server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(reservationSvc reservations.ReservationUseCase, lockerSvc lockers.LockerUseCase, db Pinger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api.NewReservationHandler(reservationSvc).Register(router.Group("/reservations"))
	api.NewLockerHandler(lockerSvc).Register(router.Group("/lockers"))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/readyz", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if db != nil {
			if err := db.Ping(pingCtx); err != nil {
				c.String(http.StatusServiceUnavailable, "db not ready")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	})

	return router
}

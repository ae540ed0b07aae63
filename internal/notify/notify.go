package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/vzorin/lockerbook/internal/kafka"
)

// Sender is the notification sink the worker feeds from the events topic.
// The real delivery channel (email, push) sits behind it; this
// implementation just logs what would be sent.
type Sender struct {
	log zerolog.Logger
}

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	s.log.Info().
		Str("type", event.Type).
		Str("reservation_id", event.ReservationID).
		Int64("customer_id", event.CustomerID).
		Int64("locker_id", event.LockerID).
		Str("status", event.Status).
		Msg("notify customer")
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vzorin/lockerbook/config"
	"github.com/vzorin/lockerbook/internal/domain"
)

// RedisCache serves two best-effort roles: a TTL cache for the locker
// list read path and a snapshot mirror of reservation state. Neither is
// authoritative; postgres is.
type RedisCache struct {
	client     *redis.Client
	lockersTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, lockersTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		lockersTTL: lockersTTL,
	}
}

func (c *RedisCache) GetLockers(ctx context.Context) ([]domain.Locker, error) {
	data, err := c.client.Get(ctx, lockersKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var lockers []domain.Locker
	if err := json.Unmarshal(data, &lockers); err != nil {
		return nil, err
	}
	return lockers, nil
}

func (c *RedisCache) SetLockers(ctx context.Context, lockers []domain.Locker) error {
	payload, err := json.Marshal(lockers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, lockersKey(), payload, c.lockersTTL).Err()
}

// SnapshotReservation mirrors the latest reservation state. No TTL: the
// mirror tracks the record for its whole lifetime.
func (c *RedisCache) SnapshotReservation(ctx context.Context, r *domain.Reservation) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reservationKey(r.ID), payload, 0).Err()
}

func (c *RedisCache) DropReservation(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, reservationKey(id)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func lockersKey() string {
	return "cache:lockers"
}

func reservationKey(id uuid.UUID) string {
	return fmt.Sprintf("mirror:reservation:%s", id)
}

// Package cache keeps each doctor's booked slots per day in Redis so
// availability lookups skip the store until a booking or cancellation
// invalidates the day.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/slot"
)

const keyPrefix = "slots:booked"

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ booking.SlotCache = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// NewClient connects to addr and checks the connection.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func Key(doctorID string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, doctorID, slot.FormatDay(day))
}

type entry struct {
	Booked []time.Time `json:"booked"`
}

func (r *Redis) BookedSlots(ctx context.Context, doctorID string, day time.Time) ([]time.Time, bool, error) {
	data, err := r.client.Get(ctx, Key(doctorID, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decode cached slots: %w", err)
	}
	return e.Booked, true, nil
}

func (r *Redis) StoreBookedSlots(ctx context.Context, doctorID string, day time.Time, booked []time.Time) error {
	data, err := json.Marshal(entry{Booked: booked})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, Key(doctorID, day), data, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, doctorID string, day time.Time) error {
	return r.client.Del(ctx, Key(doctorID, day)).Err()
}

// Package redisstore keeps small runtime settings in redis: the selected
// persona, the marquee banner, and free-form user settings. Values are
// stored as JSON under a common key prefix.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fortune:"

// Well-known keys.
const (
	KeySettings        = "settings"
	KeySelectedPersona = "selected-persona"
	KeyMarquee         = "marquee"
)

var (
	// ErrUnavailable means redis could not be reached.
	ErrUnavailable = errors.New("redisstore: storage unavailable")
	// ErrQuotaExceeded means redis rejected a write for lack of memory.
	ErrQuotaExceeded = errors.New("redisstore: storage quota exceeded")
	// ErrNotFound means the key has no value.
	ErrNotFound = errors.New("redisstore: key not found")
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Close() error { return s.rdb.Close() }

// Ping verifies connectivity, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get unmarshals the JSON value at key into out.
func (s *Store) Get(ctx context.Context, key string, out any) error {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("redisstore: malformed value at %s: %w", key, err)
	}
	return nil
}

// Set marshals v as JSON and stores it. ttl <= 0 means no expiry.
func (s *Store) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redisstore: serialize %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		if strings.Contains(err.Error(), "OOM") {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Marquee is the scrolling banner shown by the client.
type Marquee struct {
	Enabled    bool      `json:"enabled"`
	Message    string    `json:"message"`
	UpdateTime time.Time `json:"updateTime"`
}

// GetMarquee returns the stored banner, or fallback when none is stored.
// Storage failures also fall back: the banner is never worth an error page.
func (s *Store) GetMarquee(ctx context.Context, fallback Marquee) Marquee {
	var m Marquee
	if err := s.Get(ctx, KeyMarquee, &m); err != nil {
		return fallback
	}
	return m
}

func (s *Store) SetMarquee(ctx context.Context, m Marquee) error {
	m.UpdateTime = time.Now()
	return s.Set(ctx, KeyMarquee, m, 0)
}

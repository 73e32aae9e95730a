package orders

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	numberPrefix   = "ORD"
	dayLayout      = "20060102"
	sequenceName   = "orders"
	redisSeqMaxAge = 48 * time.Hour
)

// Sequencer hands out per-day order sequence values. Values are unique and
// increase monotonically within a day; gaps are allowed.
type Sequencer interface {
	Next(ctx context.Context, day string) (int64, error)
}

// FormatNumber renders ORD-YYYYMMDD-NNNNNN for the UTC day of at.
func FormatNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", numberPrefix, at.UTC().Format(dayLayout), seq)
}

// DaySequencer increments the order_sequences row for the day in one statement.
type DaySequencer struct {
	db *gorm.DB
}

func NewDaySequencer(db *gorm.DB) *DaySequencer {
	return &DaySequencer{db: db}
}

func (s *DaySequencer) Next(ctx context.Context, day string) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO order_sequences (day, last_value) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET last_value = order_sequences.last_value + 1
		 RETURNING last_value`, day,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("order sequence for %s returned %d", day, value)
	}
	return value, nil
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	SequenceKey(name, day string) string
}

// RedisSequencer uses INCR on a per-day key that expires after the day rolls over.
type RedisSequencer struct {
	store counterStore
}

func NewRedisSequencer(store counterStore) *RedisSequencer {
	return &RedisSequencer{store: store}
}

func (s *RedisSequencer) Next(ctx context.Context, day string) (int64, error) {
	return s.store.IncrWithTTL(ctx, s.store.SequenceKey(sequenceName, day), redisSeqMaxAge)
}

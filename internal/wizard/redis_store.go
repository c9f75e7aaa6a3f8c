package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// redisSnapshotTTL bounds storage only. Freshness is decided from the
// snapshot timestamp, so an entry older than the adoption window may still be
// read back and ignored.
const redisSnapshotTTL = 24 * time.Hour

// RedisGateway stores snapshots in Redis under booking_wizard:{salonID}:{sessionID}.
type RedisGateway struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisGateway builds a Redis-backed gateway.
func NewRedisGateway(client *redis.Client) *RedisGateway {
	if client == nil {
		panic("wizard: redis client cannot be nil")
	}
	return &RedisGateway{
		redis:  client,
		tracer: otel.Tracer("salon.internal.wizard.snapshots"),
	}
}

var _ PersistenceGateway = (*RedisGateway)(nil)

func snapshotKey(key SnapshotKey) string {
	return fmt.Sprintf("booking_wizard:%s:%s", key.SalonID, key.SessionID)
}

func (g *RedisGateway) Load(ctx context.Context, key SnapshotKey) (*Snapshot, error) {
	ctx, span := g.tracer.Start(ctx, "wizard.load_snapshot")
	defer span.End()

	data, err := g.redis.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("wizard: failed to load snapshot: %w", err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return snap, nil
}

func (g *RedisGateway) Save(ctx context.Context, key SnapshotKey, snap Snapshot) error {
	ctx, span := g.tracer.Start(ctx, "wizard.save_snapshot")
	defer span.End()

	data, err := encodeSnapshot(snap)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := g.redis.Set(ctx, snapshotKey(key), data, redisSnapshotTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to persist snapshot: %w", err)
	}
	return nil
}

func (g *RedisGateway) Delete(ctx context.Context, key SnapshotKey) error {
	ctx, span := g.tracer.Start(ctx, "wizard.delete_snapshot")
	defer span.End()

	if err := g.redis.Del(ctx, snapshotKey(key)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to delete snapshot: %w", err)
	}
	return nil
}

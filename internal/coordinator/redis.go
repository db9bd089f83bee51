package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var fcTracer = otel.Tracer("coordinator")

// RedisCoordinator implements Coordinator against a single Redis (or
// Redis-compatible) instance, following the same context-aware,
// per-call-span client usage as the leaderboard chapters' repository
// adapters.
type RedisCoordinator struct {
	client *redis.Client
	cfg    Config
}

func NewRedisCoordinator(client *redis.Client, cfg Config) *RedisCoordinator {
	return &RedisCoordinator{client: client, cfg: cfg}
}

func (c *RedisCoordinator) SetStock(ctx context.Context, saleID string, n int) error {
	ctx, span := fcTracer.Start(ctx, "fc.set_stock",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID), attribute.Int("stock", n)))
	defer span.End()

	if err := c.client.Set(ctx, c.cfg.stockKey(saleID), n, 0).Err(); err != nil {
		span.RecordError(err)
		return wrapRedisErr(err)
	}
	return nil
}

func (c *RedisCoordinator) GetStock(ctx context.Context, saleID string) (int, bool, error) {
	ctx, span := fcTracer.Start(ctx, "fc.get_stock",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	v, err := c.client.Get(ctx, c.cfg.stockKey(saleID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return 0, false, wrapRedisErr(err)
	}
	span.SetAttributes(attribute.Int("stock", v))
	return v, true, nil
}

func (c *RedisCoordinator) DecrStock(ctx context.Context, saleID string) (int, error) {
	ctx, span := fcTracer.Start(ctx, "fc.decr_stock",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	v, err := c.client.Decr(ctx, c.cfg.stockKey(saleID)).Result()
	if err != nil {
		span.RecordError(err)
		return 0, wrapRedisErr(err)
	}
	span.SetAttributes(attribute.Int64("new_stock", v))
	return int(v), nil
}

func (c *RedisCoordinator) IncrStock(ctx context.Context, saleID string) (int, error) {
	ctx, span := fcTracer.Start(ctx, "fc.incr_stock",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	v, err := c.client.Incr(ctx, c.cfg.stockKey(saleID)).Result()
	if err != nil {
		span.RecordError(err)
		return 0, wrapRedisErr(err)
	}
	span.SetAttributes(attribute.Int64("new_stock", v))
	return int(v), nil
}

func (c *RedisCoordinator) HasMark(ctx context.Context, saleID, userID string) (bool, error) {
	ctx, span := fcTracer.Start(ctx, "fc.has_mark",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID), attribute.String("user_id", userID)))
	defer span.End()

	n, err := c.client.Exists(ctx, c.cfg.markKey(saleID, userID)).Result()
	if err != nil {
		span.RecordError(err)
		return false, wrapRedisErr(err)
	}
	return n > 0, nil
}

func (c *RedisCoordinator) SetMark(ctx context.Context, saleID, userID string) error {
	ctx, span := fcTracer.Start(ctx, "fc.set_mark",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID), attribute.String("user_id", userID)))
	defer span.End()

	if err := c.client.Set(ctx, c.cfg.markKey(saleID, userID), "1", c.cfg.MarkTTL).Err(); err != nil {
		span.RecordError(err)
		return wrapRedisErr(err)
	}
	return nil
}

func (c *RedisCoordinator) ClearMark(ctx context.Context, saleID, userID string) error {
	ctx, span := fcTracer.Start(ctx, "fc.clear_mark",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID), attribute.String("user_id", userID)))
	defer span.End()

	if err := c.client.Del(ctx, c.cfg.markKey(saleID, userID)).Err(); err != nil {
		span.RecordError(err)
		return wrapRedisErr(err)
	}
	return nil
}

// Reset deletes the stock key and every user mark for a sale. It
// scans with SCAN rather than KEYS to avoid blocking the server on a
// large mark set.
func (c *RedisCoordinator) Reset(ctx context.Context, saleID string) error {
	ctx, span := fcTracer.Start(ctx, "fc.reset",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	keysToDelete := []string{c.cfg.stockKey(saleID)}

	var cursor uint64
	pattern := c.cfg.markScanPattern(saleID)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			span.RecordError(err)
			return wrapRedisErr(err)
		}
		keysToDelete = append(keysToDelete, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keysToDelete) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keysToDelete...).Err(); err != nil {
		span.RecordError(err)
		return wrapRedisErr(err)
	}
	return nil
}

func (c *RedisCoordinator) Ping(ctx context.Context) error {
	return wrapRedisErr(c.client.Ping(ctx).Err())
}

func wrapRedisErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("coordinator: %w", err)
}

package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "attempts:"

// AttemptLedger keeps one sorted set per (ip, route), scored by the attempt
// time in unix microseconds. Old members are trimmed on every append and the
// key itself expires after retention of inactivity.
type AttemptLedger struct {
	rdb       redis.Cmdable
	retention time.Duration
}

func NewAttemptLedger(rdb redis.Cmdable, retention time.Duration) *AttemptLedger {
	return &AttemptLedger{rdb: rdb, retention: retention}
}

func attemptKey(ip, route string) string {
	return keyPrefix + ip + ":" + route
}

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}

func (l *AttemptLedger) CountRecent(ctx context.Context, ip, route string, since time.Time) (int, error) {
	n, err := l.rdb.ZCount(ctx, attemptKey(ip, route), score(since), "+inf").Result()
	if err != nil {
		return 0, errors.Wrap(err, "attemptLedger.CountRecent.ZCount")
	}
	return int(n), nil
}

func (l *AttemptLedger) Append(ctx context.Context, a *domain.Attempt) error {
	key := attemptKey(a.IPAddress, a.Route)

	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(a.CreatedAt.UnixMicro()),
			Member: uuid.NewString(),
		})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+score(a.CreatedAt.Add(-l.retention)))
		pipe.Expire(ctx, key, l.retention)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "attemptLedger.Append.TxPipelined")
	}
	return nil
}

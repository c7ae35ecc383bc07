package spamwindow

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisWindowPrefix string = "spamwin/"
var redisLastMsgPrefix string = "spamlast/"

// RedisStore keeps windows in redis sorted sets scored by event time, so
// several bot processes can share spam state. Eviction and counting happen
// in a single pipelined round-trip.
type RedisStore struct {
	Client *redis.Client

	// disambiguates members added within the same nanosecond
	seq atomic.Uint64
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStore{Client: rdb}, nil
}

func (s *RedisStore) RecordAndCount(ctx context.Context, guildID, authorID string, kind Kind, n int, interval time.Duration, now time.Time) (int, error) {
	key := redisWindowPrefix + windowKey(guildID, authorID) + "/" + string(kind)
	score := float64(now.UnixNano())

	members := make([]redis.Z, n)
	for i := range members {
		members[i] = redis.Z{
			Score:  score,
			Member: fmt.Sprintf("%d-%d", now.UnixNano(), s.seq.Add(1)),
		}
	}

	cutoff := strconv.FormatInt(now.Add(-interval).UnixNano(), 10)

	multi := s.Client.Pipeline()
	if len(members) > 0 {
		multi.ZAdd(ctx, key, members...)
	}
	multi.ZRemRangeByScore(ctx, key, "-inf", cutoff)
	card := multi.ZCard(ctx, key)
	multi.Expire(ctx, key, interval+time.Minute)
	if _, err := multi.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

func (s *RedisStore) SwapLastMessage(ctx context.Context, guildID, authorID, content string, ttl time.Duration, now time.Time) (string, error) {
	key := redisLastMsgPrefix + windowKey(guildID, authorID)
	prev, err := s.Client.SetArgs(ctx, key, content, redis.SetArgs{Get: true, TTL: ttl}).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return prev, nil
}

func (s *RedisStore) RemoveGuild(ctx context.Context, guildID string) error {
	for _, prefix := range []string{redisWindowPrefix, redisLastMsgPrefix} {
		iter := s.Client.Scan(ctx, 0, prefix+guildID+"/*", 100).Iterator()
		for iter.Next(ctx) {
			if err := s.Client.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}

package publisher

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"strconv"

	"sjsage522/recruitcrawler/logger"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using Redis streams
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	if streamCount < 1 {
		streamCount = 1
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher().WithStr("stream", streamPrefix),
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// StreamName returns the stream a message lands in; with streamCount 10 the
// names are prefix:0 ~ prefix:9
func (p *RedisPublisher) StreamName(n int) string {
	return p.streamPrefix + ":" + strconv.Itoa(n)
}

// Publish base64 encodes message and appends it to a random stream, keyed by
// source ("b64_jumpit", ...)
func (p *RedisPublisher) Publish(ctx context.Context, source string, message []byte) error {
	encoded := base64.StdEncoding.EncodeToString(message)
	stream := p.StreamName(rand.IntN(p.streamCount))

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"b64_" + source: encoded,
		},
	}).Err()
}

// TrimStreams trims every stream to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	for i := 0; i < p.streamCount; i++ {
		stream := p.StreamName(i)
		removed, err := p.client.XTrimMaxLen(ctx, stream, int64(p.streamMaxLength)).Result()
		if err != nil {
			p.log.Warn().Str("name", stream).Err(err).Msg("Stream trim failed")
			return err
		}
		p.log.Debug().Str("name", stream).Int64("removed", removed).Msg("Stream trimmed")
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	if err := p.client.Close(); err != nil {
		return err
	}
	p.log.Debug().Msg("Publisher closed")
	return nil
}

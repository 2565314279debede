package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisStreamPublisher creates a watermill publisher writing to Redis streams
func NewRedisStreamPublisher(client redis.UniversalClient, logger zerolog.Logger) (message.Publisher, error) {
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		NewZerologAdapter(logger.With().Str("component", "events").Logger()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis stream publisher: %w", err)
	}

	return publisher, nil
}

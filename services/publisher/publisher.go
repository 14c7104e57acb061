package publisher

import "context"

// Publisher pushes serialized output rows to downstream consumers
type Publisher interface {
	// Publish publishes one message under the given source key
	Publish(ctx context.Context, source string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

package publisher

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// NoopPublisher discards every message; it is used when Redis is not configured
type NoopPublisher struct{}

// Publish discards the message
func (NoopPublisher) Publish(string, []byte) error { return nil }

// TrimStreams does nothing
func (NoopPublisher) TrimStreams() error { return nil }

// Close does nothing
func (NoopPublisher) Close() error { return nil }

package sse

// Publisher lets services emit events without depending on the Hub.
type Publisher interface {
	// Publish marshals payload to JSON and queues it for every subscriber.
	Publish(eventType string, payload any) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }

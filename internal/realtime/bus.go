package realtime

import "context"

// Bus fans messages out across service instances. The in-process Hub handles
// local subscribers; a Bus implementation bridges instances.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	StartForwarder(ctx context.Context, onMsg func(m Message)) error
	Close() error
}

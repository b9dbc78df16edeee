package store

import "context"

// EventPublisher receives a notification after a collection mutation has been
// applied and persisted. Publishing is best-effort: failures are logged and
// never fail the mutation.
type EventPublisher interface {
	PublishChange(ctx context.Context, collection, action, ref string) error
}

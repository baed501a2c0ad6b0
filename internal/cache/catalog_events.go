package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// CatalogChannel carries the version of every catalog an instance publishes
const CatalogChannel = "catalog:changed"

// CatalogNotifier fans catalog changes out to every service instance
type CatalogNotifier interface {
	Publish(ctx context.Context, version string) error
	Subscribe(ctx context.Context, onChange func(version string)) error
}

type catalogNotifier struct {
	client *redis.Client
}

func NewCatalogNotifier(client *redis.Client) CatalogNotifier {
	return &catalogNotifier{client: client}
}

func (n *catalogNotifier) Publish(ctx context.Context, version string) error {
	return n.client.Publish(ctx, CatalogChannel, version).Err()
}

// Subscribe blocks, calling onChange for each message, until ctx is done
func (n *catalogNotifier) Subscribe(ctx context.Context, onChange func(version string)) error {
	sub := n.client.Subscribe(ctx, CatalogChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			onChange(msg.Payload)
		}
	}
}

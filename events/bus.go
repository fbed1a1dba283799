// Package events carries "data changed" notifications between the session
// managers and whoever displays their data.
package events

import "sync"

// Topics published by the managers.
const (
	TopicCart     = "cart"
	TopicWishlist = "wishlist"
)

// Bus is a topic-keyed observer registry. Publish runs subscribers
// synchronously on the caller's goroutine, so an invalidation issued after
// a state commit is observed before the publisher returns.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]func())}
}

// Subscribe registers fn for topic. Subscriptions are process-lifetime;
// there is no unsubscribe.
func (b *Bus) Subscribe(topic string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], fn)
}

// Publish notifies every subscriber of topic.
func (b *Bus) Publish(topic string) {
	b.mu.RLock()
	subs := make([]func(), len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

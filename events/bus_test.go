package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aquilass/tcnr01/events"
)

func TestPublishReachesAllSubscribersOfTopic(t *testing.T) {
	bus := events.NewBus()

	var cartHits, wishlistHits int
	bus.Subscribe(events.TopicCart, func() { cartHits++ })
	bus.Subscribe(events.TopicCart, func() { cartHits++ })
	bus.Subscribe(events.TopicWishlist, func() { wishlistHits++ })

	bus.Publish(events.TopicCart)
	assert.Equal(t, 2, cartHits)
	assert.Equal(t, 0, wishlistHits, "topics are independent")

	bus.Publish(events.TopicWishlist)
	assert.Equal(t, 1, wishlistHits)
}

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	bus := events.NewBus()
	assert.NotPanics(t, func() { bus.Publish(events.TopicCart) })
}

func TestPublishIsSynchronous(t *testing.T) {
	bus := events.NewBus()

	fired := false
	bus.Subscribe(events.TopicCart, func() { fired = true })
	bus.Publish(events.TopicCart)
	assert.True(t, fired, "subscribers run before Publish returns")
}

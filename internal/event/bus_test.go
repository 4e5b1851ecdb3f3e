package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryBus(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	first, unsubscribeFirst := bus.Subscribe()
	second, unsubscribeSecond := bus.Subscribe()
	defer unsubscribeSecond()

	bus.Publish(Event{Type: TypeReadingCreated, Payload: 42})

	got := <-first
	require.Equal(t, TypeReadingCreated, got.Type)
	require.NotEmpty(t, got.ID)
	require.Equal(t, got, <-second)

	unsubscribeFirst()
	_, open := <-first
	require.False(t, open)

	unsubscribeFirst()
	bus.Publish(Event{Type: TypeReadingsCleared})
	require.Equal(t, TypeReadingsCleared, (<-second).Type)
}

func TestInMemoryBusDropsWhenSubscriberIsFull(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeReadingCreated, Payload: i})
	}

	require.Len(t, events, subscriberBuffer)
	require.Equal(t, 0, (<-events).Payload)
}

package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEHub_Broadcast(t *testing.T) {
	hub := NewSSEHub()
	t.Cleanup(hub.Close)

	events, unsubscribe := hub.Subscribe("")
	defer unsubscribe()
	require.Eventually(t, func() bool { return hub.GetClientCount(allDatasets) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(AnalysisEvent{DatasetID: "d1", EventType: EventDatasetLoaded})
	select {
	case event := <-events:
		assert.Equal(t, "d1", event.DatasetID)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSSEHub_SubscribeAfterClose(t *testing.T) {
	hub := NewSSEHub()
	hub.Close()
	hub.Close()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 20; i++ {
			events, unsubscribe := hub.Subscribe("d1")
			_, ok := <-events
			assert.False(t, ok)
			unsubscribe()
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe blocked on a closed hub")
	}
}

func TestSSEHub_UnsubscribeAfterClose(t *testing.T) {
	hub := NewSSEHub()

	var unsubscribes []func()
	for i := 0; i < 15; i++ {
		_, unsubscribe := hub.Subscribe("d1")
		unsubscribes = append(unsubscribes, unsubscribe)
	}
	hub.Close()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		require.Fail(t, "unsubscribe blocked on a closed hub")
	}
}

package alerting

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadingBus_DeliversToAllHandlers(t *testing.T) {
	t.Parallel()

	bus := NewReadingBus()
	defer bus.Stop()

	var mu sync.Mutex
	var first, second []string

	bus.Subscribe(func(event *ReadingEvent) {
		mu.Lock()
		defer mu.Unlock()
		first = append(first, event.UserID)
	})
	bus.Subscribe(func(event *ReadingEvent) {
		mu.Lock()
		defer mu.Unlock()
		second = append(second, event.UserID)
	})

	bus.Publish(&ReadingEvent{UserID: "user-1", GlucoseValue: 45})
	bus.Publish(&ReadingEvent{UserID: "user-2", GlucoseValue: 310})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(first) == 2 && len(second) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestReadingBus_SetsTimestamp(t *testing.T) {
	t.Parallel()

	bus := NewReadingBus()
	defer bus.Stop()

	received := make(chan *ReadingEvent, 1)
	bus.Subscribe(func(event *ReadingEvent) {
		received <- event
	})

	bus.Publish(&ReadingEvent{UserID: "user-1", GlucoseValue: 45})

	select {
	case event := <-received:
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestReadingBus_PanickingHandlerDoesNotKillBus(t *testing.T) {
	t.Parallel()

	bus := NewReadingBus()
	defer bus.Stop()

	var mu sync.Mutex
	var delivered int

	bus.Subscribe(func(_ *ReadingEvent) {
		panic("handler exploded")
	})
	bus.Subscribe(func(_ *ReadingEvent) {
		mu.Lock()
		defer mu.Unlock()
		delivered++
	})

	bus.Publish(&ReadingEvent{UserID: "user-1", GlucoseValue: 45})
	bus.Publish(&ReadingEvent{UserID: "user-1", GlucoseValue: 46})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered == 2
	}, time.Second, 5*time.Millisecond)
}

func TestReadingBus_DropsAfterStop(t *testing.T) {
	t.Parallel()

	bus := NewReadingBus()

	var mu sync.Mutex
	var delivered int
	bus.Subscribe(func(_ *ReadingEvent) {
		mu.Lock()
		defer mu.Unlock()
		delivered++
	})

	bus.Stop()
	bus.Publish(&ReadingEvent{UserID: "user-1", GlucoseValue: 45})

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, delivered)
}

package alerting

import (
	"sync"
	"time"
)

// ReadingEvent is one glucose reading entering the pipeline.
type ReadingEvent struct {
	UserID       string
	GlucoseValue float64
	ReadingID    string
	Timestamp    time.Time
}

// ReadingHandler processes reading events.
type ReadingHandler func(event *ReadingEvent)

// readingBusBufferSize is the capacity of the async reading channel. Readings
// are dropped if the buffer is full to avoid blocking producers.
const readingBusBufferSize = 1000

// ReadingBus is an async pub/sub for incoming readings. Publish is
// non-blocking: readings are sent to a buffered channel and processed by a
// worker goroutine, so producers (the HTTP handler, the MQTT subscriber) are
// never blocked by directory lookups or notification dispatch.
type ReadingBus struct {
	handlers []ReadingHandler
	mu       sync.RWMutex
	eventCh  chan *ReadingEvent
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewReadingBus creates a new reading bus and starts its worker.
func NewReadingBus() *ReadingBus {
	b := &ReadingBus{
		handlers: make([]ReadingHandler, 0),
		eventCh:  make(chan *ReadingEvent, readingBusBufferSize),
		stopCh:   make(chan struct{}),
	}
	go b.processLoop()
	return b
}

// Subscribe registers a handler for reading events.
func (b *ReadingBus) Subscribe(handler ReadingHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish enqueues a reading for async processing. Non-blocking: if the
// buffer is full the reading is dropped to protect producers on hot paths.
// Readings are silently dropped after Stop() has been called.
func (b *ReadingBus) Publish(event *ReadingEvent) {
	select {
	case <-b.stopCh:
		return
	default:
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	default:
		// Buffer full, drop to avoid blocking producers
	}
}

// Stop shuts down the worker goroutine. Safe to call multiple times.
func (b *ReadingBus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// processLoop drains the reading channel and dispatches to handlers.
func (b *ReadingBus) processLoop() {
	for {
		select {
		case event := <-b.eventCh:
			b.dispatch(event)
		case <-b.stopCh:
			// Drain remaining readings before exiting
			for {
				select {
				case event := <-b.eventCh:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *ReadingBus) dispatch(event *ReadingEvent) {
	b.mu.RLock()
	handlers := make([]ReadingHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}
}

// safeCall invokes a handler with panic recovery so a panicking handler
// cannot kill the bus goroutine.
func (b *ReadingBus) safeCall(handler ReadingHandler, event *ReadingEvent) {
	defer func() {
		recover() //nolint:errcheck // intentionally swallowed to keep bus alive
	}()
	handler(event)
}

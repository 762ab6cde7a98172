package event

import "sync"

// Handler receives the event name alongside its payload so one handler can
// serve several events.
type Handler func(event string, payload interface{})

type Bus struct {
	handlers map[string][]Handler
	mu       sync.RWMutex
	async    bool
	inflight sync.WaitGroup
}

// NewBus returns a bus that runs every handler on its own goroutine.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		async:    true,
	}
}

// NewSyncBus returns a bus that runs handlers inline, in subscription order.
func NewSyncBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[event] = append(b.handlers[event], handler)
}

// SubscribeAll registers handler for every named event.
func (b *Bus) SubscribeAll(events []string, handler Handler) {
	for _, e := range events {
		b.Subscribe(e, handler)
	}
}

func (b *Bus) Publish(event string, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hs, ok := b.handlers[event]
	if !ok {
		return
	}
	for _, h := range hs {
		if !b.async {
			h(event, payload)
			continue
		}
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			h(event, payload)
		}(h)
	}
}

// Wait blocks until every asynchronously dispatched handler has returned.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

package pricecache

import (
	"sync"

	"github.com/marketcore/core/internal/domain"
)

// subscriberBuffer bounds how many emissions a slow subscriber may queue
// before the cache starts dropping its oldest unread item.
const subscriberBuffer = 64

// broadcaster is a single-producer, multi-consumer fan-out of
// domain.AggregatedPrice values. Each subscriber owns an independent
// buffered channel; a full channel has its oldest item dropped to make room
// rather than blocking the producer.
type broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan domain.AggregatedPrice
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan domain.AggregatedPrice)}
}

// Receiver is the handle returned to a subscriber. Close must be called when
// the subscriber is done to release its channel slot.
type Receiver struct {
	id int
	ch <-chan domain.AggregatedPrice
	b  *broadcaster
}

// C returns the channel to read aggregated prices from. Consumers that fall
// behind lose the oldest items; they never observe emissions out of order.
func (r *Receiver) C() <-chan domain.AggregatedPrice { return r.ch }

// Close unregisters the receiver.
func (r *Receiver) Close() {
	r.b.remove(r.id)
}

func (b *broadcaster) subscribe() *Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan domain.AggregatedPrice, subscriberBuffer)
	id := b.next
	b.next++
	b.subs[id] = ch
	return &Receiver{id: id, ch: ch, b: b}
}

func (b *broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish fans out to every current subscriber without blocking. A full
// subscriber buffer has its oldest entry dropped and the new one enqueued,
// preserving arrival order for everything the subscriber does receive. Lack
// of subscribers is not an error.
func (b *broadcaster) publish(ap domain.AggregatedPrice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ap:
		default:
			// Drop the oldest queued item to make room, then enqueue.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ap:
			default:
				// Still full (concurrent reader drained it exactly wrong);
				// skip this subscriber for this emission rather than block.
			}
		}
	}
}

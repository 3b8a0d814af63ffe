package allowance

import (
	"sync"

	"github.com/gammazero/deque"
)

// Bus is an unbounded many-producer single-consumer queue of snapshots.
// Publishing never blocks, draining never waits
type Bus struct {
	queue *deque.Deque[Snapshot]
	mutex sync.Mutex
}

func NewBus() *Bus {
	return &Bus{
		queue: deque.New[Snapshot](),
	}
}

func (b *Bus) Publish(s Snapshot) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.queue.PushBack(s)
}

func (b *Bus) Pending() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.queue.Len()
}

// Drain removes and returns all the pending snapshots in publishing order,
// nil if there are none
func (b *Bus) Drain() []Snapshot {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.queue.Len() == 0 {
		return nil
	}

	res := make([]Snapshot, 0, b.queue.Len())
	for b.queue.Len() > 0 {
		res = append(res, b.queue.PopFront())
	}
	return res
}

package app

import (
	"fmt"
	"math/rand"
	"sync"
)

// pinAllocator generates 6-digit room codes. Allocation retries until the
// code does not collide with a live room.
type pinAllocator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newPinAllocator(seed int64) *pinAllocator {
	return &pinAllocator{rnd: rand.New(rand.NewSource(seed))}
}

func (a *pinAllocator) Allocate(taken func(pin string) bool) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		pin := fmt.Sprintf("%06d", a.rnd.Intn(900000)+100000)
		if !taken(pin) {
			return pin
		}
	}
}

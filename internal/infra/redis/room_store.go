package redis

import (
	"context"
	"sync"
	"time"

	"hack-arena/internal/app"
	"github.com/redis/go-redis/v9"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Rooms themselves stay in-process; a Room carries a mutex and a live
//     timer and cannot meaningfully be serialized.
//   - Redis marks room liveness per PIN, which keeps PIN allocation
//     collision-safe across restarts within the TTL window and gives
//     operators a live-room view.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Put(room *app.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Pin()] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(room.Pin()), "1", s.ttl).Err()
}

func (s *RoomStore) Get(pin string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[pin]
	return room, ok
}

func (s *RoomStore) Delete(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, pin)
	_ = s.client.Del(context.Background(), s.key(pin)).Err()
}

func (s *RoomStore) Exists(pin string) bool {
	s.mu.RLock()
	if _, ok := s.rooms[pin]; ok {
		s.mu.RUnlock()
		return true
	}
	s.mu.RUnlock()
	n, err := s.client.Exists(context.Background(), s.key(pin)).Result()
	return err == nil && n > 0
}

func (s *RoomStore) key(pin string) string {
	return "arena:room:" + pin
}

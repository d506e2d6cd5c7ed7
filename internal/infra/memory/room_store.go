package memory

import (
	"sync"

	"hack-arena/internal/app"
)

// RoomStore is an in-memory implementation of app.RoomRepository.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*app.Room)}
}

func (s *RoomStore) Put(room *app.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Pin()] = room
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
}

func (s *RoomStore) Exists(pin string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[pin]
	return ok
}

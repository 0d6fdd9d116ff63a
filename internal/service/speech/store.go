package speech

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clip is stored audio addressable by id.
type Clip struct {
	ID        string
	Audio     Audio
	CreatedAt time.Time
}

// ClipStore keeps the most recent clips in memory and evicts the oldest
// once capacity is reached.
type ClipStore struct {
	capacity int

	mu    sync.Mutex
	order *list.List // front is newest
	byID  map[string]*list.Element
}

// NewClipStore creates a store holding at most capacity clips.
func NewClipStore(capacity int) *ClipStore {
	if capacity < 1 {
		capacity = 1
	}
	return &ClipStore{
		capacity: capacity,
		order:    list.New(),
		byID:     make(map[string]*list.Element),
	}
}

// Put stores audio under a fresh id.
func (s *ClipStore) Put(audio Audio) Clip {
	clip := Clip{ID: uuid.NewString(), Audio: audio, CreatedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[clip.ID] = s.order.PushFront(clip)
	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.byID, oldest.Value.(Clip).ID)
	}
	return clip
}

// Get returns the clip with id, if it has not been evicted.
func (s *ClipStore) Get(id string) (Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.byID[id]
	if !ok {
		return Clip{}, false
	}
	return el.Value.(Clip), true
}

// Len returns the number of stored clips.
func (s *ClipStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

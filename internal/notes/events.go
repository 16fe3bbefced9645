package notes

import (
	"sync"

	"github.com/starford/notesd/internal/models"
)

// EventType names a committed change.
type EventType string

const (
	EventNoteCreated  EventType = "note.created"
	EventNoteUpdated  EventType = "note.updated"
	EventNoteDeleted  EventType = "note.deleted"
	EventContentSaved EventType = "content.saved"
	EventIndexRebuilt EventType = "index.rebuilt"
)

// Event describes one committed change. Note is set for created and
// updated notes.
type Event struct {
	Type   EventType    `json:"type"`
	NoteID string       `json:"note_id,omitempty"`
	Note   *models.Note `json:"note,omitempty"`
}

// Subscribe registers fn to be called after every committed change. fn runs
// on the writer's goroutine and must not block. The returned function
// removes the subscription.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.subs.add(fn)
}

type subscribers struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(Event)
}

func (s *subscribers) add(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) publish(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.fns {
		fn(e)
	}
}

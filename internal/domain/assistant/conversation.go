package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const (
	maxTurns         = 40
	maxConversations = 10000
	idleAfter        = 30 * time.Minute
	sweepInterval    = time.Minute
)

type conversation struct {
	turns    []Turn
	lastUsed time.Time
}

// conversationStore keeps chat history in memory. Idle conversations are
// dropped on access, and each history keeps only its latest turns.
type conversationStore struct {
	mu        sync.Mutex
	convs     map[string]*conversation
	lastSweep time.Time
	now       func() time.Time
}

func newConversationStore() *conversationStore {
	return &conversationStore{convs: make(map[string]*conversation), now: time.Now}
}

// history returns a copy of the turns of id. Unknown or expired ids start a
// new conversation under a fresh id.
func (s *conversationStore) history(id string) (string, []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if c, ok := s.convs[id]; ok && id != "" {
		c.lastUsed = now
		return id, append([]Turn(nil), c.turns...)
	}

	if len(s.convs) >= maxConversations {
		s.evictOldestLocked()
	}
	id = uuid.NewString()
	s.convs[id] = &conversation{lastUsed: now}
	return id, nil
}

// append records a completed exchange.
func (s *conversationStore) append(id string, turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		c = &conversation{}
		s.convs[id] = c
	}
	c.turns = append(c.turns, turns...)
	if len(c.turns) > maxTurns {
		c.turns = append([]Turn(nil), c.turns[len(c.turns)-maxTurns:]...)
	}
	c.lastUsed = s.now()
}

func (s *conversationStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *conversationStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, c := range s.convs {
		if now.Sub(c.lastUsed) > idleAfter {
			delete(s.convs, id)
		}
	}
}

func (s *conversationStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, c := range s.convs {
		if oldestID == "" || c.lastUsed.Before(oldest) {
			oldestID, oldest = id, c.lastUsed
		}
	}
	delete(s.convs, oldestID)
}

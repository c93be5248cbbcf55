package bot

import (
	"sync"
	"time"
)

// passwordWindow is how long an /export password prompt stays armed.
const passwordWindow = 2 * time.Minute

// sessions tracks which chats are awaiting an export password. A chat is
// either idle or awaiting; the awaiting state is consumed by exactly one
// message, whatever its content.
type sessions struct {
	mu      sync.Mutex
	pending map[int64]time.Time // chat ID -> deadline
}

func newSessions() *sessions {
	return &sessions{pending: make(map[int64]time.Time)}
}

// armPassword puts the chat into the awaiting-password state.
func (s *sessions) armPassword(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = time.Now().Add(passwordWindow)
}

// consumePassword reports whether the chat was awaiting a password within
// the window. The state is cleared either way, so every prompt gets exactly
// one attempt.
func (s *sessions) consumePassword(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.pending[chatID]
	if !ok {
		return false
	}
	delete(s.pending, chatID)

	return time.Now().Before(deadline)
}

// reset drops any pending state for the chat.
func (s *sessions) reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, chatID)
}

package bot

import (
	"sync"
)

// Состояния диалога пользователя.
type sessionState string

const (
	stateNone           sessionState = ""
	stateAwaitPromo     sessionState = "await_promocode"
	stateAwaitDetails   sessionState = "await_request_details"
	stateAwaitRequestID sessionState = "await_respond_request_id"
	stateAwaitResponse  sessionState = "await_respond_message"
)

type session struct {
	state     sessionState
	requestID string // заявка, на которую отвечает администратор
}

// sessionStore хранит состояния многошаговых диалогов в памяти.
type sessionStore struct {
	mu sync.Mutex
	m  map[int64]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[int64]session)}
}

func (s *sessionStore) get(userID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[userID]
}

func (s *sessionStore) set(userID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

func (s *sessionStore) reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

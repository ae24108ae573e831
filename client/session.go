package client

import "sync"

// Session holds the bearer token for authenticated requests. It is the
// single writer of auth state: the client reads the token per request and
// calls SignOut on any 401, never mutating the token elsewhere.
type Session struct {
	mu        sync.RWMutex
	token     string
	onSignOut func()
}

// NewSession creates an empty session. onSignOut, if non-nil, runs once
// per sign-out (e.g. to redirect to a login screen).
func NewSession(onSignOut func()) *Session {
	return &Session{onSignOut: onSignOut}
}

// SetToken replaces the bearer token after a successful login or refresh.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Token returns the current bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignOut clears the token and fires the sign-out hook if a token was
// present.
func (s *Session) SignOut() {
	s.mu.Lock()
	hadToken := s.token != ""
	s.token = ""
	hook := s.onSignOut
	s.mu.Unlock()

	if hadToken && hook != nil {
		hook()
	}
}

package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultResetTokenTTL is how long a password reset token stays valid.
const DefaultResetTokenTTL = time.Hour

// ResetTokenStore keeps single-use password reset tokens bound to an email.
type ResetTokenStore interface {
	// Issue creates a new token for email, replacing any earlier one.
	Issue(ctx context.Context, email string) (string, error)
	// Consume reports whether token is valid for email and invalidates it.
	Consume(ctx context.Context, email, token string) (bool, error)
}

type resetEntry struct {
	email   string
	expires time.Time
}

// MemoryResetTokenStore is a process-local ResetTokenStore.
type MemoryResetTokenStore struct {
	mu      sync.Mutex
	tokens  map[string]resetEntry
	byEmail map[string]string
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryResetTokenStore creates an empty store. A nil clock uses time.Now.
func NewMemoryResetTokenStore(ttl time.Duration, now func() time.Time) *MemoryResetTokenStore {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryResetTokenStore{
		tokens:  make(map[string]resetEntry),
		byEmail: make(map[string]string),
		ttl:     ttl,
		now:     now,
	}
}

// Issue creates a 32 byte hex token for email.
func (s *MemoryResetTokenStore) Issue(ctx context.Context, email string) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", err
	}
	email = strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byEmail[email]; ok {
		delete(s.tokens, old)
	}
	s.tokens[token] = resetEntry{email: email, expires: s.now().Add(s.ttl)}
	s.byEmail[email] = token
	return token, nil
}

// Consume checks token against email. Any lookup of an expired token or a
// successful match removes it.
func (s *MemoryResetTokenStore) Consume(ctx context.Context, email, token string) (bool, error) {
	email = strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[token]
	if !ok {
		return false, nil
	}
	if !s.now().Before(entry.expires) {
		s.remove(token, entry.email)
		return false, nil
	}
	if entry.email != email {
		return false, nil
	}
	s.remove(token, entry.email)
	return true, nil
}

func (s *MemoryResetTokenStore) remove(token, email string) {
	delete(s.tokens, token)
	if s.byEmail[email] == token {
		delete(s.byEmail, email)
	}
}

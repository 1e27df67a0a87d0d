// Package memstore holds process-local stores for development and tests.
package memstore

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/go-kanban/internal/domain"
)

// CodeStore keeps pending login codes in a mutex-guarded map. Every method
// holds the lock for its whole read-compare-write, which gives Put
// last-writer-wins and Take first-taker-wins semantics per email.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]domain.VerificationCode
}

func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]domain.VerificationCode)}
}

func (s *CodeStore) Put(_ context.Context, v *domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[v.Email] = *v
	return nil
}

func (s *CodeStore) Get(_ context.Context, email string) (*domain.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.codes[email]
	if !ok {
		return nil, fmt.Errorf("login code: %w", domain.ErrCodeNotFound)
	}
	return &v, nil
}

func (s *CodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

func (s *CodeStore) Take(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.codes[email]
	if !ok || subtle.ConstantTimeCompare([]byte(v.Code), []byte(code)) != 1 {
		return fmt.Errorf("login code already used or replaced: %w", domain.ErrCodeNotFound)
	}
	delete(s.codes, email)
	return nil
}

// PurgeExpired drops codes that expired before now and returns how many.
func (s *CodeStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for email, v := range s.codes {
		if v.Expired(now) {
			delete(s.codes, email)
			n++
		}
	}
	return n, nil
}

// Len returns the number of pending codes.
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

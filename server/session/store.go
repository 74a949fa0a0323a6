package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/meetandfeat/web/server/platform"
)

// Store caches resolved users by session token.
type Store interface {
	Get(ctx context.Context, token string) (*platform.User, bool, error)
	Set(ctx context.Context, token string, user platform.User, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// tokenKey hashes a token so raw session tokens are never used as keys.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type memoryEntry struct {
	User      platform.User
	ExpiresAt time.Time
}

func (e memoryEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
	}

	go s.cleanupEntries()

	return s
}

type MemoryStore struct {
	entries   map[string]memoryEntry
	entriesMu sync.Mutex
}

func (s *MemoryStore) Get(_ context.Context, token string) (*platform.User, bool, error) {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()

	entry, ok := s.entries[tokenKey(token)]
	if !ok || entry.IsExpired() {
		return nil, false, nil
	}
	user := entry.User
	return &user, true, nil
}

func (s *MemoryStore) Set(_ context.Context, token string, user platform.User, ttl time.Duration) error {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()

	s.entries[tokenKey(token)] = memoryEntry{
		User:      user,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()

	delete(s.entries, tokenKey(token))
	return nil
}

func (s *MemoryStore) cleanupEntries() {
	for {
		s.doCleanupEntries()
		time.Sleep(5 * time.Minute)
	}
}

func (s *MemoryStore) doCleanupEntries() {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()

	for key, entry := range s.entries {
		if entry.IsExpired() {
			delete(s.entries, key)
		}
	}
}

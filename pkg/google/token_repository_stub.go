package google

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

type tokenEntry struct {
	nonce string
	token *oauth2.Token
}

type TokenRepositoryStub struct {
	mu      sync.Mutex
	entries map[int]tokenEntry
}

func NewTokenRepositoryStub() *TokenRepositoryStub {
	return &TokenRepositoryStub{entries: make(map[int]tokenEntry)}
}

func (s *TokenRepositoryStub) ReplaceNonce(ctx context.Context, userId int, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userId] = tokenEntry{nonce: nonce}
	return nil
}

func (s *TokenRepositoryStub) StoreToken(ctx context.Context, nonce string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userId, entry := range s.entries {
		if entry.nonce == nonce {
			entry.token = token
			s.entries[userId] = entry
			return nil
		}
	}
	return ErrUnknownNonce
}

func (s *TokenRepositoryStub) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[userId].token, nil
}

func (s *TokenRepositoryStub) DeleteToken(ctx context.Context, userId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userId)
	return nil
}

// Nonce returns the pending login nonce of the user.
func (s *TokenRepositoryStub) Nonce(userId int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[userId].nonce
}

// Package memory implementa core.Store en memoria. Se usa en tests y en
// desarrollo sin Postgres; replica la semántica transaccional del adapter pg,
// incluida la carrera ganador/perdedor de la rotación.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pennypilot/auth/internal/store/core"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]*core.User          // por id
	links  map[string]*core.ProviderLink  // por provider|provider_user_id
	tokens map[string]*core.RefreshToken  // por id
	byHash map[string]string              // token_hash → id
}

func New() *Store {
	return &Store{
		users:  make(map[string]*core.User),
		links:  make(map[string]*core.ProviderLink),
		tokens: make(map[string]*core.RefreshToken),
		byHash: make(map[string]string),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

func linkKey(provider, providerUserID string) string {
	return provider + "|" + providerUserID
}

func cloneUser(u *core.User) *core.User {
	cp := *u
	return &cp
}

func cloneToken(t *core.RefreshToken) *core.RefreshToken {
	cp := *t
	return &cp
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) findByEmail(email string) *core.User {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *Store) ResolveIdentity(ctx context.Context, in core.ResolveIdentityInput) (*core.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	if link, ok := s.links[linkKey(in.Provider, in.ProviderUserID)]; ok {
		u := s.users[link.UserID]
		s.fillMissingNames(u, in, now)
		return cloneUser(u), false, nil
	}

	if u := s.findByEmail(in.Email); u != nil {
		s.insertLink(u.ID, in, now)
		s.fillMissingNames(u, in, now)
		return cloneUser(u), false, nil
	}

	u := &core.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	s.insertLink(u.ID, in, now)
	return cloneUser(u), true, nil
}

func (s *Store) insertLink(userID string, in core.ResolveIdentityInput, now time.Time) {
	s.links[linkKey(in.Provider, in.ProviderUserID)] = &core.ProviderLink{
		ID:             uuid.NewString(),
		UserID:         userID,
		Provider:       in.Provider,
		ProviderUserID: in.ProviderUserID,
		CreatedAt:      now,
	}
}

func (s *Store) fillMissingNames(u *core.User, in core.ResolveIdentityInput, now time.Time) {
	changed := false
	if u.FirstName == nil && in.FirstName != nil {
		u.FirstName = in.FirstName
		changed = true
	}
	if u.LastName == nil && in.LastName != nil {
		u.LastName = in.LastName
		changed = true
	}
	if changed {
		u.UpdatedAt = now
	}
}

// CountUsers y CountLinks existen para asserts en tests.
func (s *Store) CountUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) CountLinks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

func (s *Store) CreateRefreshToken(ctx context.Context, in core.CreateRefreshTokenInput) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTokenLocked(in), nil
}

func (s *Store) createTokenLocked(in core.CreateRefreshTokenInput) *core.RefreshToken {
	t := &core.RefreshToken{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		TokenHash:   in.TokenHash,
		ExpiresAt:   in.ExpiresAt,
		RotatedFrom: in.RotatedFrom,
		CreatedAt:   time.Now().UTC(),
	}
	s.tokens[t.ID] = t
	s.byHash[t.TokenHash] = t.ID
	return cloneToken(t)
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[tokenHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneToken(s.tokens[id]), nil
}

func (s *Store) RotateRefreshToken(ctx context.Context, oldID string, in core.CreateRefreshTokenInput) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.tokens[oldID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if old.RevokedAt != nil {
		return nil, core.ErrRevoked
	}
	now := time.Now().UTC()
	old.RevokedAt = &now
	return s.createTokenLocked(in), nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || t.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	return nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tokens {
		if t.ExpiresAt.Before(now) {
			delete(s.byHash, t.TokenHash)
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

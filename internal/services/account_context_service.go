package services

import (
	"context"
	"log"
	"time"

	"castor/internal/database"
	"castor/internal/models"

	"github.com/patrickmn/go-cache"
)

// contextEntry wraps a cached lookup result. A stored entry with a nil
// context means "this account has no brand context" — a cached state
// distinct from a cache miss.
type contextEntry struct {
	context *models.AccountContext
}

// AccountContextService serves per-account brand context through a
// process-local TTL cache. Brand-voice edits are rare and the editing UI
// reads the store directly, so the staleness window is acceptable.
type AccountContextService struct {
	repo  database.AccountContextRepository
	cache *cache.Cache
}

// NewAccountContextService creates the service with the given TTL for both
// positive and negative results.
func NewAccountContextService(repo database.AccountContextRepository, ttl time.Duration) *AccountContextService {
	return &AccountContextService{
		repo:  repo,
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// Get returns the account's brand context, or nil when the account has none.
// Store misses and store errors are both treated as nil and cached; the
// caller never sees an error from this path.
func (s *AccountContextService) Get(ctx context.Context, accountID string) *models.AccountContext {
	if value, found := s.cache.Get(accountID); found {
		recordContextCacheHit()
		return value.(contextEntry).context
	}
	recordContextCacheMiss()

	accountContext, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		log.Printf("⚠️ [CONTEXT] Lookup failed for account %s, treating as no context: %v", accountID, err)
		accountContext = nil
	}

	s.cache.Set(accountID, contextEntry{context: accountContext}, cache.DefaultExpiration)
	return accountContext
}

// Invalidate drops the cached entry for an account. Called after the editing
// UI saves a brand-context change.
func (s *AccountContextService) Invalidate(accountID string) {
	s.cache.Delete(accountID)
}

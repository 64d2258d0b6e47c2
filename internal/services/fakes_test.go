package services

import (
	"context"
	"sync"
	"time"

	"castor/internal/config"
	"castor/internal/models"
)

// fakeGenerator replays a scripted sequence of responses and records every
// call it receives.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
}

type fakeResponse struct {
	raw string
	err error
}

type fakeCall struct {
	prompt string
	opts   GenerateOptions
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, opts GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, fakeCall{prompt: prompt, opts: opts})
	if len(g.responses) == 0 {
		return "", nil
	}
	next := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return next.raw, next.err
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGenerator) call(i int) fakeCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[i]
}

// fakeProfileRepo is an in-memory ProfileRepository.
type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.StyleProfile
	findErr  error
	upserts  int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*models.StyleProfile)}
}

func (r *fakeProfileRepo) FindByUserID(_ context.Context, userID string) (*models.StyleProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.profiles[userID], nil
}

func (r *fakeProfileRepo) UpsertByUserID(_ context.Context, userID string, profile *models.StyleProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	r.profiles[userID] = profile
	return nil
}

func (r *fakeProfileRepo) FindStale(_ context.Context, analyzedBefore time.Time, limit int64) ([]models.StyleProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []models.StyleProfile
	for _, p := range r.profiles {
		if p.AnalyzedAt.Before(analyzedBefore) && int64(len(stale)) < limit {
			stale = append(stale, *p)
		}
	}
	return stale, nil
}

func (r *fakeProfileRepo) get(userID string) *models.StyleProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[userID]
}

func (r *fakeProfileRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts
}

// fakeContextRepo is an in-memory AccountContextRepository that counts reads.
type fakeContextRepo struct {
	mu       sync.Mutex
	contexts map[string]*models.AccountContext
	err      error
	lookups  int
}

func (r *fakeContextRepo) FindByAccountID(_ context.Context, accountID string) (*models.AccountContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.err != nil {
		return nil, r.err
	}
	return r.contexts[accountID], nil
}

func (r *fakeContextRepo) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

// fakeSocialClient serves a fixed cast list. When gate is set, fetches
// block until the channel is closed.
type fakeSocialClient struct {
	mu      sync.Mutex
	casts   []models.Cast
	err     error
	fetches int
	gate    chan struct{}
}

func (c *fakeSocialClient) FetchRecentCasts(_ context.Context, _ int64, _ int, _ bool) ([]models.Cast, error) {
	c.mu.Lock()
	c.fetches++
	gate := c.gate
	c.mu.Unlock()

	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.casts, nil
}

func (c *fakeSocialClient) fetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

func testSettingsStore() *ModelSettingsStore {
	return NewModelSettingsStore(config.DefaultModelSettings())
}

package service

import (
	"sync"
	"time"

	"github.com/noah-isme/routine-planner-api/internal/models"
)

// routineProposal is one generated search result kept in memory until it expires.
// It pins the catalog it was generated from so confirmations survive a refresh.
type routineProposal struct {
	ID            string
	Catalog       *models.Catalog
	Courses       []string
	Preferences   models.Preferences
	Routines      []models.Routine
	ValidSections []int
	Truncated     bool
	CreatedAt     time.Time
}

const defaultProposalLimit = 256

// proposalStore holds live proposals. Entries expire after ttl and the oldest
// is evicted once limit proposals are held.
type proposalStore struct {
	ttl   time.Duration
	limit int
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]routineProposal
}

func newProposalStore(ttl time.Duration, limit int) *proposalStore {
	if limit <= 0 {
		limit = defaultProposalLimit
	}
	return &proposalStore{
		ttl:   ttl,
		limit: limit,
		now:   time.Now,
		items: make(map[string]routineProposal),
	}
}

func (s *proposalStore) ExpiresAt(proposal routineProposal) time.Time {
	return proposal.CreatedAt.Add(s.ttl)
}

func (s *proposalStore) Save(proposal routineProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	if _, exists := s.items[proposal.ID]; !exists {
		for len(s.items) >= s.limit {
			s.evictOldestLocked()
		}
	}
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(id string) (routineProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return routineProposal{}, false
	}
	if s.now().Sub(proposal.CreatedAt) > s.ttl {
		s.Delete(id)
		return routineProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *proposalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *proposalStore) sweepLocked() {
	now := s.now()
	for id, proposal := range s.items {
		if now.Sub(proposal.CreatedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}

func (s *proposalStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
		found    bool
	)
	for id, proposal := range s.items {
		if !found || proposal.CreatedAt.Before(oldest) {
			oldestID, oldest, found = id, proposal.CreatedAt, true
		}
	}
	if found {
		delete(s.items, oldestID)
	}
}

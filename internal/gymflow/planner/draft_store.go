package planner

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultDraftTTL = time.Hour
	cleanupInterval = 10 * time.Minute
)

// DraftStore keeps drafts in memory and forgets them after the TTL passes
// without an update.
type DraftStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewDraftStore(ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func (s *DraftStore) Put(d *Draft) {
	s.cache.Set(d.ID.String(), d.clone(), s.ttl)
}

func (s *DraftStore) Get(id uuid.UUID) (*Draft, bool) {
	v, found := s.cache.Get(id.String())
	if !found {
		return nil, false
	}
	d, ok := v.(*Draft)
	if !ok {
		return nil, false
	}
	return d.clone(), true
}

func (s *DraftStore) Delete(id uuid.UUID) {
	s.cache.Delete(id.String())
}

func (s *DraftStore) Count() int {
	return s.cache.ItemCount()
}

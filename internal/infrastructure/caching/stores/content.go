package stores

import (
	"sync"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/types"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// ContentStore caches glossary terms by ID with a slug index, plus the
// listing catalog.
type ContentStore struct {
	terms   map[string]*types.TermEntry
	bySlug  map[string]string
	catalog *types.CatalogEntry
	mu      sync.RWMutex
	logger  *logging.ChanneledLogger
}

func NewContentStore(logger *logging.ChanneledLogger) *ContentStore {
	if logger != nil {
		logger.Cache().Info("Initializing content cache store")
	}
	return &ContentStore{
		terms:  make(map[string]*types.TermEntry),
		bySlug: make(map[string]string),
		logger: logger,
	}
}

func (cs *ContentStore) GetTerm(id string) (*content.TermNode, bool) {
	start := time.Now()
	cs.mu.RLock()
	entry, found := cs.terms[id]
	cs.mu.RUnlock()

	if found && entry.Expired(time.Now().UTC(), config.ContentCacheTTL) {
		cs.mu.Lock()
		delete(cs.terms, id)
		cs.mu.Unlock()
		found = false
		entry = nil
	}
	if cs.logger != nil {
		cs.logger.Cache().Debug("Cache operation", "operation", "get", "type", "term", "termId", id, "hit", found, "duration", time.Since(start))
	}
	if !found {
		return nil, false
	}
	return entry.Term, true
}

func (cs *ContentStore) SetTerm(term *content.TermNode) {
	cs.mu.Lock()
	cs.terms[term.ID] = &types.TermEntry{Term: term, LoadedAt: time.Now().UTC()}
	cs.bySlug[term.Slug] = term.ID
	cs.mu.Unlock()
}

func (cs *ContentStore) GetTermBySlug(slug string) (*content.TermNode, bool) {
	cs.mu.RLock()
	id, ok := cs.bySlug[slug]
	cs.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cs.GetTerm(id)
}

func (cs *ContentStore) GetCatalog() (*types.CatalogEntry, bool) {
	cs.mu.RLock()
	entry := cs.catalog
	cs.mu.RUnlock()

	if entry == nil || entry.Expired(time.Now().UTC(), config.ContentCacheTTL) {
		return nil, false
	}
	return entry, true
}

func (cs *ContentStore) SetCatalog(summaries []content.TermSummary, categories []content.CategoryNode) {
	cs.mu.Lock()
	cs.catalog = &types.CatalogEntry{
		Summaries:  summaries,
		Categories: categories,
		LoadedAt:   time.Now().UTC(),
	}
	cs.mu.Unlock()
}

// InvalidateContent drops all cached content. Called after imports.
func (cs *ContentStore) InvalidateContent() {
	cs.mu.Lock()
	dropped := len(cs.terms)
	cs.terms = make(map[string]*types.TermEntry)
	cs.bySlug = make(map[string]string)
	cs.catalog = nil
	cs.mu.Unlock()

	if cs.logger != nil {
		cs.logger.Cache().Info("Invalidated content cache", "dropped", dropped)
	}
}

func (cs *ContentStore) Cleanup() types.StoreStats {
	now := time.Now().UTC()
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var evicted int
	for id, entry := range cs.terms {
		if entry.Expired(now, config.ContentCacheTTL) {
			delete(cs.bySlug, entry.Term.Slug)
			delete(cs.terms, id)
			evicted++
		}
	}
	if cs.catalog != nil && cs.catalog.Expired(now, config.ContentCacheTTL) {
		cs.catalog = nil
		evicted++
	}
	return types.StoreStats{Name: "content", Entries: len(cs.terms), Evicted: evicted}
}

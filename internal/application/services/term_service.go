package services

import (
	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/domain/repositories"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/interfaces"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// TermService serves glossary content through the cache. Gating decisions
// belong to AccessService and GuestService; this service only decides what
// shape of content to return for an allowed or denied request.
type TermService struct {
	terms       repositories.TermRepository
	categories  repositories.CategoryRepository
	cache       interfaces.ContentCache
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewTermService(
	terms repositories.TermRepository,
	categories repositories.CategoryRepository,
	cache interfaces.ContentCache,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *TermService {
	return &TermService{
		terms:       terms,
		categories:  categories,
		cache:       cache,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GatedTerm is a term response shaped by an entitlement decision: denied
// requests carry the summary only, never the definition.
type GatedTerm struct {
	Term     *content.TermNode    `json:"term,omitempty"`
	Summary  *content.TermSummary `json:"summary,omitempty"`
	Decision access.Decision      `json:"decision"`
}

// GetBySlug loads a term through the cache.
func (s *TermService) GetBySlug(slug string) (*content.TermNode, error) {
	marker := s.perfTracker.StartOperation("term_get_by_slug")
	defer marker.Complete()

	if term, ok := s.cache.GetTermBySlug(slug); ok {
		marker.SetSuccess(true)
		return term, nil
	}

	term, err := s.terms.FindBySlug(slug)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if term != nil {
		s.cache.SetTerm(term)
	}
	marker.SetSuccess(true)
	return term, nil
}

// Gate shapes a term response according to a decision.
func (s *TermService) Gate(term *content.TermNode, decision access.Decision) *GatedTerm {
	if decision.Allowed {
		return &GatedTerm{Term: term, Decision: decision}
	}
	summary := term.Summary()
	return &GatedTerm{Summary: &summary, Decision: decision}
}

// ListSummaries returns listing rows, serving the unfiltered first page from
// the catalog cache.
func (s *TermService) ListSummaries(categoryID string, limit, offset int) ([]content.TermSummary, error) {
	marker := s.perfTracker.StartOperation("term_list")
	defer marker.Complete()

	if limit <= 0 || limit > config.SearchResultsCap {
		limit = config.SearchResultsCap
	}

	if categoryID == "" && offset == 0 {
		if catalog, ok := s.cache.GetCatalog(); ok {
			marker.SetSuccess(true)
			if len(catalog.Summaries) > limit {
				return catalog.Summaries[:limit], nil
			}
			return catalog.Summaries, nil
		}
	}

	summaries, err := s.terms.ListSummaries(categoryID, limit, offset)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	marker.SetSuccess(true)
	return summaries, nil
}

// Search matches term titles and slugs.
func (s *TermService) Search(query string, limit int) ([]content.TermSummary, error) {
	marker := s.perfTracker.StartOperation("term_search")
	defer marker.Complete()

	if limit <= 0 || limit > config.SearchResultsCap {
		limit = config.SearchResultsCap
	}

	results, err := s.terms.Search(query, limit)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	marker.SetSuccess(true)
	return results, nil
}

// ListCategories returns all categories with term counts, cached with the
// catalog.
func (s *TermService) ListCategories() ([]content.CategoryNode, error) {
	marker := s.perfTracker.StartOperation("category_list")
	defer marker.Complete()

	if catalog, ok := s.cache.GetCatalog(); ok {
		marker.SetSuccess(true)
		return catalog.Categories, nil
	}

	categories, err := s.categories.List()
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	summaries, err := s.terms.ListSummaries("", config.SearchResultsCap, 0)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	s.cache.SetCatalog(summaries, categories)

	marker.SetSuccess(true)
	return categories, nil
}

// InvalidateContent drops cached content after an import.
func (s *TermService) InvalidateContent() {
	s.cache.InvalidateContent()
	s.logger.Content().Info("Content cache invalidated")
}

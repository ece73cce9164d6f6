package services

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

type memTermRepo struct {
	bySlug map[string]*content.TermNode
}

func newMemTermRepo() *memTermRepo {
	return &memTermRepo{bySlug: make(map[string]*content.TermNode)}
}

func (r *memTermRepo) FindByID(id string) (*content.TermNode, error) {
	for _, t := range r.bySlug {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memTermRepo) FindBySlug(slug string) (*content.TermNode, error) {
	return r.bySlug[slug], nil
}

func (r *memTermRepo) ListSummaries(categoryID string, limit, offset int) ([]content.TermSummary, error) {
	return nil, nil
}

func (r *memTermRepo) Search(query string, limit int) ([]content.TermSummary, error) {
	return nil, nil
}

func (r *memTermRepo) Upsert(term *content.TermNode) error {
	copied := *term
	r.bySlug[term.Slug] = &copied
	return nil
}

func (r *memTermRepo) Count() (int, error) { return len(r.bySlug), nil }

type memCategoryRepo struct {
	bySlug map[string]*content.CategoryNode
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{bySlug: make(map[string]*content.CategoryNode)}
}

func (r *memCategoryRepo) List() ([]content.CategoryNode, error) {
	var out []content.CategoryNode
	for _, c := range r.bySlug {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCategoryRepo) FindBySlug(slug string) (*content.CategoryNode, error) {
	return r.bySlug[slug], nil
}

func (r *memCategoryRepo) Upsert(category *content.CategoryNode) error {
	r.bySlug[category.Slug] = category
	return nil
}

const importFixture = `Term,Definition,Related
Gradient Descent,An iterative optimization algorithm.,Backpropagation; Learning Rate
Backpropagation,,Gradient Descent
Transformer,An attention-based architecture.,
`

func TestImportCSVMapsColumns(t *testing.T) {
	terms := newMemTermRepo()
	svc := NewImportService(terms, newMemCategoryRepo(), logging.NewTestLogger())

	summary, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 0, summary.Failed)

	gd, err := terms.FindBySlug("gradient-descent")
	require.NoError(t, err)
	require.NotNil(t, gd)
	assert.Equal(t, "Gradient Descent", gd.Title)
	assert.Equal(t, "An iterative optimization algorithm.", gd.Definition)
	assert.Equal(t, []string{"Backpropagation", "Learning Rate"}, gd.Related)
	assert.NotEmpty(t, gd.ID)

	// Empty definition falls back to the title.
	bp, err := terms.FindBySlug("backpropagation")
	require.NoError(t, err)
	require.NotNil(t, bp)
	assert.Equal(t, "Backpropagation", bp.Definition)
}

func TestImportCSVSkipsUnchangedRows(t *testing.T) {
	terms := newMemTermRepo()
	svc := NewImportService(terms, newMemCategoryRepo(), logging.NewTestLogger())
	hashFile := filepath.Join(t.TempDir(), "hashes.json")

	first, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{HashFile: hashFile})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Imported)

	// Same content again: all rows skip.
	second, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{HashFile: hashFile})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 3, second.Skipped)

	// One row changed: only that row reimports.
	changed := strings.Replace(importFixture, "attention-based", "self-attention", 1)
	third, err := svc.ImportCSV(strings.NewReader(changed), ImportOptions{HashFile: hashFile})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Imported)
	assert.Equal(t, 2, third.Skipped)

	tr, err := terms.FindBySlug("transformer")
	require.NoError(t, err)
	assert.Contains(t, tr.Definition, "self-attention")
}

func TestImportCSVForceAllIgnoresHashes(t *testing.T) {
	terms := newMemTermRepo()
	svc := NewImportService(terms, newMemCategoryRepo(), logging.NewTestLogger())
	hashFile := filepath.Join(t.TempDir(), "hashes.json")

	_, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{HashFile: hashFile})
	require.NoError(t, err)

	forced, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{HashFile: hashFile, ForceAll: true})
	require.NoError(t, err)
	assert.Equal(t, 3, forced.Imported)
}

func TestImportCSVUpsertPreservesIdentity(t *testing.T) {
	terms := newMemTermRepo()
	svc := NewImportService(terms, newMemCategoryRepo(), logging.NewTestLogger())

	_, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{})
	require.NoError(t, err)
	original, _ := terms.FindBySlug("transformer")

	changed := strings.Replace(importFixture, "attention-based", "self-attention", 1)
	_, err = svc.ImportCSV(strings.NewReader(changed), ImportOptions{})
	require.NoError(t, err)

	updated, _ := terms.FindBySlug("transformer")
	assert.Equal(t, original.ID, updated.ID, "reimport must keep the term ID stable")
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
}

func TestImportCSVDryRunWritesNothing(t *testing.T) {
	terms := newMemTermRepo()
	svc := NewImportService(terms, newMemCategoryRepo(), logging.NewTestLogger())

	summary, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Imported)

	count, _ := terms.Count()
	assert.Equal(t, 0, count)
}

func TestImportCSVFilesTermsUnderCategory(t *testing.T) {
	terms := newMemTermRepo()
	categories := newMemCategoryRepo()
	svc := NewImportService(terms, categories, logging.NewTestLogger())

	_, err := svc.ImportCSV(strings.NewReader(importFixture), ImportOptions{Category: "Deep Learning"})
	require.NoError(t, err)

	cat, err := categories.FindBySlug("deep-learning")
	require.NoError(t, err)
	require.NotNil(t, cat)

	gd, _ := terms.FindBySlug("gradient-descent")
	assert.Equal(t, cat.ID, gd.CategoryID)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Gradient Descent":           "gradient-descent",
		"K-Nearest Neighbors (k-NN)": "k-nearest-neighbors-k-nn",
		"  ReLU  ":                   "relu",
		"GPT-4":                      "gpt-4",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

package services

import (
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/domain/repositories"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/security"
)

// ImportService loads glossary terms from CSV exports. The first column is
// the term name; remaining columns are matched to fields by header, with
// definition falling back through overview and description. Row hashes are
// kept between runs so unchanged rows are skipped.
type ImportService struct {
	terms      repositories.TermRepository
	categories repositories.CategoryRepository
	logger     *logging.ChanneledLogger
	now        func() time.Time
}

func NewImportService(terms repositories.TermRepository, categories repositories.CategoryRepository, logger *logging.ChanneledLogger) *ImportService {
	return &ImportService{terms: terms, categories: categories, logger: logger, now: time.Now}
}

// ImportSummary reports one import run.
type ImportSummary struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ImportOptions controls one run.
type ImportOptions struct {
	HashFile string // change-detection state; empty disables skipping
	ForceAll bool
	DryRun   bool
	Category string // category title applied to imported terms
}

// ImportCSV streams a CSV file into the term repository.
func (s *ImportService) ImportCSV(r io.Reader, opts ImportOptions) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(headers[i]))
	}

	hashes := s.loadHashes(opts.HashFile)
	categoryID, err := s.ensureCategory(opts)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	now := s.now().UTC()

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Failed++
			s.logger.Content().Warn("Skipping malformed CSV row", "error", err.Error())
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		summary.Total++

		title := strings.TrimSpace(row[0])
		rowHash := hashRow(row)
		if !opts.ForceAll && hashes[title] == rowHash {
			summary.Skipped++
			continue
		}

		term := s.buildTerm(title, categoryID, headers, row, now)
		if opts.DryRun {
			summary.Imported++
			hashes[title] = rowHash
			continue
		}

		if err := s.upsertTerm(term, now); err != nil {
			summary.Failed++
			s.logger.Content().Error("Failed to import term", "term", title, "error", err.Error())
			continue
		}
		summary.Imported++
		hashes[title] = rowHash
	}

	if opts.HashFile != "" && !opts.DryRun {
		s.saveHashes(opts.HashFile, hashes)
	}

	s.logger.Content().Info("Import complete",
		"total", summary.Total, "imported", summary.Imported,
		"skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// buildTerm maps header names to fields. Definition falls back through the
// aliases the source exports have used over time.
func (s *ImportService) buildTerm(title, categoryID string, headers, row []string, now time.Time) *content.TermNode {
	fields := make(map[string]string)
	for i := 1; i < len(headers) && i < len(row); i++ {
		value := strings.TrimSpace(row[i])
		if value != "" {
			fields[headers[i]] = value
		}
	}

	definition := fields["definition"]
	if definition == "" {
		definition = fields["overview"]
	}
	if definition == "" {
		definition = fields["description"]
	}
	if definition == "" {
		definition = title
	}

	var related []string
	if rel := fields["related"]; rel != "" {
		for _, part := range strings.Split(rel, ";") {
			if part = strings.TrimSpace(part); part != "" {
				related = append(related, part)
			}
		}
	}

	return &content.TermNode{
		Slug:       Slugify(title),
		Title:      title,
		Definition: definition,
		CategoryID: categoryID,
		Related:    related,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// upsertTerm keeps the existing ID and creation time for known slugs.
func (s *ImportService) upsertTerm(term *content.TermNode, now time.Time) error {
	existing, err := s.terms.FindBySlug(term.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		term.ID = existing.ID
		term.CreatedAt = existing.CreatedAt
	} else {
		term.ID = security.GenerateULID()
	}
	term.UpdatedAt = now
	return s.terms.Upsert(term)
}

func (s *ImportService) ensureCategory(opts ImportOptions) (string, error) {
	title := opts.Category
	if title == "" || opts.DryRun {
		return "", nil
	}
	slug := Slugify(title)
	existing, err := s.categories.FindBySlug(slug)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}
	category := &content.CategoryNode{ID: security.GenerateULID(), Slug: slug, Title: title}
	if err := s.categories.Upsert(category); err != nil {
		return "", err
	}
	return category.ID, nil
}

func (s *ImportService) loadHashes(path string) map[string]string {
	hashes := make(map[string]string)
	if path == "" {
		return hashes
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return hashes
	}
	if err := json.Unmarshal(raw, &hashes); err != nil {
		s.logger.Content().Warn("Hash file unreadable, importing everything", "path", path)
		return make(map[string]string)
	}
	return hashes
}

func (s *ImportService) saveHashes(path string, hashes map[string]string) {
	raw, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		s.logger.Content().Warn("Failed to save hash file", "path", path, "error", err.Error())
	}
}

func hashRow(row []string) string {
	sum := md5.Sum([]byte(strings.Join(row, "|")))
	return hex.EncodeToString(sum[:])
}

// Slugify lowercases and hyphenates a title into a URL slug.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

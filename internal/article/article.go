// Package article defines the canonical article shapes and the scraped payload parser.
package article

import (
	"crypto/sha1" // #nosec G505 - content addressing, not cryptographic protection
	"encoding/hex"
	"strings"
	"time"
)

// ScrapedArticle is the canonical, validated form of a scraped document.
// Categories carries the raw metadata category names; normalization
// happens when the category catalog is built.
type ScrapedArticle struct {
	ID          string
	URL         string
	Source      string
	PublishDate time.Time
	Image       string
	Authors     []string
	Titles      []string
	Paragraphs  []string
	Categories  []string
}

// AnalysisText assembles the text fed to the ML collaborators: titles joined
// by newlines immediately followed by paragraphs joined by newlines, with no
// separator between the two groups. Embedding reproducibility across
// deployments depends on this exact concatenation.
func (a *ScrapedArticle) AnalysisText() string {
	return strings.Join(a.Titles, "\n") + strings.Join(a.Paragraphs, "\n")
}

// Category is a content-addressed category catalog entry.
// The id is a pure function of the normalized name.
type Category struct {
	ID   string
	Name string
}

// NormalizeCategoryName trims and lowercases a free-text category name.
func NormalizeCategoryName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NewCategory mints a Category from a raw free-text name.
// The id is the SHA-1 hex digest of the normalized name, so the same name
// always maps to the same catalog entry.
func NewCategory(raw string) Category {
	name := NormalizeCategoryName(raw)
	sum := sha1.Sum([]byte(name)) // #nosec G401 - content addressing, not cryptographic protection
	return Category{
		ID:   hex.EncodeToString(sum[:]),
		Name: name,
	}
}

// EnrichedArticle is the pipeline output record: the parsed article plus the
// batch analyze time, catalog cross-references, the embedding vector, and
// optional named entities.
type EnrichedArticle struct {
	Article     ScrapedArticle
	AnalyzeTime time.Time

	// Categories is the union of metadata and predicted categories.
	// AnalyzedCategories contains only the predicted ones and is always a
	// subset of Categories.
	Categories         []Category
	AnalyzedCategories []Category

	Embeddings []float32
	Entities   []string
}

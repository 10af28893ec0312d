package article

import (
	"encoding/json"
	"fmt"
	"time"
)

// Accepted publish date layouts. Zone-less timestamps are read as UTC.
var publishDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type scrapedMetadata struct {
	Source     string   `json:"source"`
	Categories []string `json:"categories"`
}

type scrapedComponents struct {
	Article json.RawMessage `json:"article"`
}

type scrapedPayload struct {
	ID         string             `json:"id"`
	URL        string             `json:"url"`
	Metadata   *scrapedMetadata   `json:"metadata"`
	Components *scrapedComponents `json:"components"`
}

// ParseScraped decodes a raw stream payload into a ScrapedArticle.
//
// The payload is an envelope with id, url, optional metadata and a
// components.article fragment list. Each fragment is an object carrying one
// recognized key; fragments with only unknown keys are skipped. A recognized
// key holding a value of the wrong type rejects the whole payload, as does a
// document that ends up without a title, a paragraph or a publish date.
func ParseScraped(payload []byte) (*ScrapedArticle, error) {
	var p scrapedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("payload has no article id")
	}
	if p.URL == "" {
		return nil, fmt.Errorf("article %s has no url", p.ID)
	}
	if p.Components == nil || len(p.Components.Article) == 0 {
		return nil, fmt.Errorf("article %s has no components", p.ID)
	}

	var fragments []map[string]json.RawMessage
	if err := json.Unmarshal(p.Components.Article, &fragments); err != nil {
		return nil, fmt.Errorf("article %s has malformed components: %w", p.ID, err)
	}

	out := &ScrapedArticle{ID: p.ID, URL: p.URL}
	if p.Metadata != nil {
		out.Source = p.Metadata.Source
		out.Categories = p.Metadata.Categories
	}

	for _, frag := range fragments {
		if err := applyFragment(out, frag); err != nil {
			return nil, fmt.Errorf("article %s: %w", p.ID, err)
		}
	}

	if len(out.Titles) == 0 {
		return nil, fmt.Errorf("article %s has no title", p.ID)
	}
	if len(out.Paragraphs) == 0 {
		return nil, fmt.Errorf("article %s has no paragraphs", p.ID)
	}
	if out.PublishDate.IsZero() {
		return nil, fmt.Errorf("article %s has no publish date", p.ID)
	}
	return out, nil
}

// applyFragment folds one fragment into the article. Key lookup order fixes
// the winner when a fragment carries more than one recognized key.
func applyFragment(a *ScrapedArticle, frag map[string]json.RawMessage) error {
	if raw, ok := frag["title"]; ok {
		var title string
		if err := json.Unmarshal(raw, &title); err != nil {
			return fmt.Errorf("title is not a string: %w", err)
		}
		a.Titles = append(a.Titles, title)
		return nil
	}
	if raw, ok := frag["paragraphs"]; ok {
		var paragraphs []string
		if err := json.Unmarshal(raw, &paragraphs); err != nil {
			return fmt.Errorf("paragraphs is not a string list: %w", err)
		}
		a.Paragraphs = append(a.Paragraphs, paragraphs...)
		return nil
	}
	if raw, ok := frag["author"]; ok {
		authors, err := decodeAuthors(raw)
		if err != nil {
			return err
		}
		a.Authors = append(a.Authors, authors...)
		return nil
	}
	if raw, ok := frag["publish_date"]; ok {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("publish_date is not a string: %w", err)
		}
		ts, err := parsePublishDate(value)
		if err != nil {
			return err
		}
		a.PublishDate = ts
		return nil
	}
	if raw, ok := frag["image"]; ok {
		var image string
		if err := json.Unmarshal(raw, &image); err != nil {
			return fmt.Errorf("image is not a string: %w", err)
		}
		a.Image = image
		return nil
	}
	// Fragment types we do not index are skipped.
	return nil
}

// decodeAuthors accepts a single name or a list of names.
func decodeAuthors(raw json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	return nil, fmt.Errorf("author is neither a string nor a string list")
}

// parsePublishDate parses an ISO-8601 timestamp and truncates it to the
// minute, so re-analysis of the same article yields the same date.
func parsePublishDate(value string) (time.Time, error) {
	for _, layout := range publishDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("publish_date %q is not a valid timestamp", value)
}

// Package scraper reads back raw documents from the scraper's own store,
// used when the stream only carries completion notifications.
package scraper

import (
	"encoding/json"
	"fmt"
)

// Notification is one element of a scrape completion event.
type Notification struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	ScrapeTime string `json:"scrape_time"`
}

// DecodeNotifications parses the payload of a completion entry, a JSON array
// of notifications.
func DecodeNotifications(payload []byte) ([]Notification, error) {
	var notifications []Notification
	if err := json.Unmarshal(payload, &notifications); err != nil {
		return nil, fmt.Errorf("malformed notification payload: %w", err)
	}
	return notifications, nil
}

// ArticleIDs collects the non-empty ids of a notification list.
func ArticleIDs(notifications []Notification) []string {
	ids := make([]string, 0, len(notifications))
	for _, n := range notifications {
		if n.ID != "" {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

package feed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/campusmatch/campusmatch/internal/store"
	"github.com/campusmatch/campusmatch/pkg/match"
)

const defaultMaxPeople = 20

// Feed is a named campus event feed (RSS/Atom) whose entries are imported
// as activities owned by a campus organizer account.
type Feed struct {
	Name      string
	URL       string
	OwnerID   int64
	MaxPeople int
}

// Importer pulls event feeds and upserts their entries as activities.
type Importer struct {
	client *http.Client
	parser *gofeed.Parser
	store  store.Store
	feeds  []Feed
}

// NewImporter creates a feed importer.
func NewImporter(s store.Store, feeds []Feed) *Importer {
	return &Importer{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		store:  s,
		feeds:  feeds,
	}
}

// HasFeeds reports whether any feed is configured.
func (im *Importer) HasFeeds() bool {
	return len(im.feeds) > 0
}

// ImportAll fetches every configured feed and returns the total number of
// imported entries. Per-feed failures are logged and skipped.
func (im *Importer) ImportAll(ctx context.Context) (int, error) {
	total := 0
	for _, f := range im.feeds {
		n, err := im.importFeed(ctx, f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  feed %s error: %v\n", f.Name, err)
			continue
		}
		total += n
	}
	return total, nil
}

func (im *Importer) importFeed(ctx context.Context, f Feed) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("create feed request %s: %w", f.Name, err)
	}
	req.Header.Set("User-Agent", "campusmatch/1.0")

	resp, err := im.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch feed %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("feed %s status %d", f.Name, resp.StatusCode)
	}

	parsed, err := im.parser.Parse(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse feed %s: %w", f.Name, err)
	}

	count := 0
	for _, entry := range parsed.Items {
		activity, externalID := im.entryToActivity(f, entry)
		if externalID == "" {
			continue
		}
		if err := im.store.UpsertImported(ctx, externalID, &activity); err != nil {
			fmt.Fprintf(os.Stderr, "  feed %s store error: %v\n", f.Name, err)
			continue
		}
		count++
	}

	return count, nil
}

// entryToActivity maps one feed entry to an activity. Feed categories are
// carried over as scheduled-time labels; the feed name is kept as the
// location name so text-location matching can pick it up.
func (im *Importer) entryToActivity(f Feed, entry *gofeed.Item) (match.Activity, string) {
	guid := entry.GUID
	if guid == "" {
		guid = entry.Link
	}
	if guid == "" {
		return match.Activity{}, ""
	}

	created := time.Now().UTC()
	if entry.PublishedParsed != nil {
		created = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		created = entry.UpdatedParsed.UTC()
	}

	maxPeople := f.MaxPeople
	if maxPeople < 2 {
		maxPeople = defaultMaxPeople
	}

	return match.Activity{
		OwnerID:      f.OwnerID,
		Title:        entry.Title,
		Description:  truncate(entry.Description, 500),
		Times:        entry.Categories,
		MaxPeople:    maxPeople,
		Status:       match.StatusActive,
		LocationName: f.Name,
		CreatedAt:    created,
	}, fmt.Sprintf("feed:%s:%s", f.Name, guid)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

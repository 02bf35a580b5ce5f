package capture

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// PodcastDownloader resolves a podcast RSS feed to its most recent episode
// and downloads that episode's audio enclosure.
type PodcastDownloader struct {
	outputDir string
	parser    *gofeed.Parser
	client    *http.Client
}

// Compile-time assertion that PodcastDownloader satisfies Downloader.
var _ Downloader = (*PodcastDownloader)(nil)

// NewPodcastDownloader returns a downloader writing into outputDir.
func NewPodcastDownloader(outputDir string) *PodcastDownloader {
	return &PodcastDownloader{
		outputDir: outputDir,
		parser:    gofeed.NewParser(),
		client:    &http.Client{Timeout: 30 * time.Minute},
	}
}

// Download parses the RSS feed at input, picks the newest episode carrying
// an audio enclosure, and downloads it.
func (d *PodcastDownloader) Download(ctx context.Context, input string) (string, error) {
	feed, err := d.parser.ParseURLWithContext(input, ctx)
	if err != nil {
		return "", fmt.Errorf("capture: parse feed %q: %w", input, err)
	}
	if len(feed.Items) == 0 {
		return "", fmt.Errorf("capture: feed %q has no episodes", input)
	}

	item := newestItem(feed.Items)
	enclosure := audioEnclosure(item)
	if enclosure == "" {
		return "", fmt.Errorf("capture: episode %q has no audio enclosure", item.Title)
	}

	slog.Debug("downloading podcast episode",
		"feed", feed.Title,
		"episode", item.Title,
		"enclosure", enclosure,
	)
	return fetchToFile(ctx, d.client, enclosure, d.outputDir)
}

// newestItem returns the item with the latest publication date, falling back
// to the feed's first item when dates are missing.
func newestItem(items []*gofeed.Item) *gofeed.Item {
	newest := items[0]
	for _, item := range items[1:] {
		if item.PublishedParsed != nil && newest.PublishedParsed != nil &&
			item.PublishedParsed.After(*newest.PublishedParsed) {
			newest = item
		}
	}
	return newest
}

// audioEnclosure returns the URL of the item's first audio enclosure, or ""
// when it has none.
func audioEnclosure(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || len(enc.Type) >= 5 && enc.Type[:5] == "audio" {
			return enc.URL
		}
	}
	return ""
}

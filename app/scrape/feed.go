package scrape

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedExtractor recognizes pages that are actually RSS/Atom documents.
// Event listings are often published as feeds alongside their HTML
// rendering; when the fetched body parses as a feed, its items become
// drafts directly and the DOM heuristics are skipped.
type FeedExtractor struct {
	parser *gofeed.Parser
}

func NewFeedExtractor() *FeedExtractor {
	return &FeedExtractor{
		parser: gofeed.NewParser(),
	}
}

// Run attempts to parse the body as a feed. HTML bodies fail the parse
// and yield zero drafts; that is the expected path for most pages.
func (e *FeedExtractor) Run(data []byte) []Draft {
	feed, err := e.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	drafts := make([]Draft, 0, len(feed.Items))

	for _, item := range feed.Items {
		if item.Title == "" || item.PublishedParsed == nil {
			continue
		}

		drafts = append(drafts, Draft{
			Title:       strings.TrimSpace(item.Title),
			DateText:    item.PublishedParsed.Format("2006-01-02"),
			Description: strings.TrimSpace(item.Description),
			Source:      SourceFeed,
		})
	}

	if len(drafts) > 0 {
		slog.Debug("Body parsed as feed", "title", feed.Title, "items", len(feed.Items), "drafts", len(drafts))
	}

	return drafts
}

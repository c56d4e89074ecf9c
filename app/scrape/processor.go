package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/calcomb/calcomb/app/cfg"
)

// ErrFetch marks page fetch failures (network errors, non-200 statuses).
// Fetch faults are terminal for the request; there is no retry.
var ErrFetch = errors.New("page fetch failed")

// Default times applied when a draft carries a date but no time
const (
	defaultStartTime = "09:00"
	defaultEndTime   = "17:00"
)

// SemanticExtractor is the fallback extraction boundary, satisfied by
// *Semantic. It is consulted only when every other strategy yields zero
// drafts and must never fail loudly.
type SemanticExtractor interface {
	Enabled() bool
	Run(ctx context.Context, rawHTML string) []Draft
}

// Processor orchestrates one extraction pass: fetch the page once, parse
// it once, run feed sniffing then DOM heuristics then the semantic
// fallback, and normalize whatever drafts come back.
type Processor struct {
	httpClient *http.Client
	feed       *FeedExtractor
	heuristic  *Heuristic
	semantic   SemanticExtractor
	userAgent  string
}

func NewProcessor(httpClient *http.Client, feed *FeedExtractor, heuristic *Heuristic, semantic SemanticExtractor) *Processor {
	return &Processor{
		httpClient: httpClient,
		feed:       feed,
		heuristic:  heuristic,
		semantic:   semantic,
		userAgent:  cfg.Get().UserAgent,
	}
}

// Run extracts canonical events from the page at pageURL. An empty result
// with a nil error means no events were found, which is a valid outcome
// and not a fault. Drafts that fail normalization are dropped silently.
func (p *Processor) Run(ctx context.Context, pageURL string) ([]Event, error) {
	data, err := p.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	drafts := p.feed.Run(data)

	if len(drafts) == 0 {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}
		drafts = p.heuristic.Run(doc)
	}

	if len(drafts) == 0 && p.semantic != nil && p.semantic.Enabled() {
		slog.Debug("Heuristics found nothing, trying semantic extraction", "url", pageURL)
		drafts = p.semantic.Run(ctx, string(data))
	}

	events := make([]Event, 0, len(drafts))
	dropped := 0

	for _, draft := range drafts {
		event, ok := p.normalizeDraft(draft)
		if !ok {
			dropped++
			continue
		}
		events = append(events, event)
	}

	slog.Info("Extraction completed",
		"url", pageURL,
		"drafts", len(drafts),
		"dropped", dropped,
		"events", len(events))

	return events, nil
}

// normalizeDraft turns a draft into a canonical event. Drafts missing a
// title or failing date normalization are rejected. Date-only drafts get
// the business-hours default; a lone start time gets a one-hour duration.
func (p *Processor) normalizeDraft(draft Draft) (Event, bool) {
	if draft.Title == "" || draft.DateText == "" {
		return Event{}, false
	}

	normalized := Normalize(draft.DateText, draft.TimeText)
	if normalized == nil {
		slog.Debug("Draft dropped, unparseable date", "title", draft.Title, "date_text", draft.DateText)
		return Event{}, false
	}

	start := normalized.StartTime
	end := normalized.EndTime

	switch {
	case start == "":
		start = defaultStartTime
		end = defaultEndTime
	case end == "" || end <= start:
		end = addHour(start)
	}

	return Event{
		Title:       draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
		Date:        normalized.Date,
		StartTime:   start,
		EndTime:     end,
		Recurrence:  draft.Recurrence,
	}, true
}

// addHour advances an HH:MM value by one hour, capping at 23:59 so the
// event never crosses into the next day
func addHour(clock string) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}

	next := t.Add(time.Hour)
	if next.Day() != t.Day() {
		return "23:59"
	}

	return next.Format("15:04")
}

// fetchPage performs the single page fetch, decoding the body to UTF-8
// when the response declares a different charset
func (p *Processor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetch, err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP error: %d %s", ErrFetch, resp.StatusCode, resp.Status)
	}

	body := decodeCharset(resp.Body, resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrFetch, err)
	}

	return data, nil
}

// decodeCharset wraps the body with a decoder for the declared charset.
// Unknown or missing charsets fall through to the raw bytes.
func decodeCharset(body io.Reader, contentType string) io.Reader {
	if contentType == "" {
		return body
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}

	name, ok := params["charset"]
	if !ok || name == "" || name == "utf-8" || name == "UTF-8" {
		return body
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		slog.Debug("Unknown charset, using raw body", "charset", name)
		return body
	}

	return transform.NewReader(body, enc.NewDecoder())
}

package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calcomb/calcomb/app/cfg"
	"github.com/calcomb/calcomb/app/profile"
)

type fakeSemantic struct {
	drafts  []Draft
	calls   int
	enabled bool
}

func (f *fakeSemantic) Enabled() bool { return f.enabled }

func (f *fakeSemantic) Run(ctx context.Context, rawHTML string) []Draft {
	f.calls++
	return f.drafts
}

func newTestProcessor(t *testing.T, semantic SemanticExtractor) *Processor {
	t.Helper()

	cfg.SetForTesting(&cfg.Cfg{UserAgent: "calcomb-test/1.0"})

	client := &http.Client{Timeout: 5 * time.Second}
	return NewProcessor(client, NewFeedExtractor(), NewHeuristic(profile.Default()), semantic)
}

func servePage(t *testing.T, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProcessor_HeuristicHit(t *testing.T) {
	server := servePage(t, `<html><body>
		<div class="event">
			<h3 class="title">Math Test</h3>
			<span class="date">3/15/2025</span>
		</div>
	</body></html>`)

	semantic := &fakeSemantic{enabled: true, drafts: []Draft{{Title: "should not appear", DateText: "2025-01-01"}}}
	p := newTestProcessor(t, semantic)

	events, err := p.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("Expected at least one event")
	}
	if events[0].Title != "Math Test" {
		t.Errorf("Expected title 'Math Test', got %q", events[0].Title)
	}
	if events[0].Date != "2025-03-15" {
		t.Errorf("Expected date 2025-03-15, got %s", events[0].Date)
	}

	// Fallback is strictly conditional on heuristic emptiness
	if semantic.calls != 0 {
		t.Errorf("Semantic extractor should not be invoked after a heuristic hit, got %d calls", semantic.calls)
	}
}

func TestProcessor_DateOnlyGetsBusinessHoursDefault(t *testing.T) {
	server := servePage(t, `<html><body>
		<div class="event">
			<h3>All Day Thing</h3>
			<span class="date">3/15/2025</span>
		</div>
	</body></html>`)

	p := newTestProcessor(t, &fakeSemantic{})

	events, err := p.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("Expected at least one event")
	}
	if events[0].StartTime != "09:00" || events[0].EndTime != "17:00" {
		t.Errorf("Expected business-hours default, got %s-%s", events[0].StartTime, events[0].EndTime)
	}
}

func TestProcessor_SemanticFallbackOnHeuristicMiss(t *testing.T) {
	server := servePage(t, "<html><body><p>Nothing structured here.</p></body></html>")

	semantic := &fakeSemantic{
		enabled: true,
		drafts: []Draft{
			{Title: "Hidden Event", DateText: "2025-04-01", TimeText: "10:00 - 11:00", Source: SourceSemantic},
		},
	}
	p := newTestProcessor(t, semantic)

	events, err := p.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if semantic.calls != 1 {
		t.Fatalf("Expected exactly one semantic call, got %d", semantic.calls)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event from semantic fallback, got %d", len(events))
	}
	if events[0].Title != "Hidden Event" {
		t.Errorf("Expected title 'Hidden Event', got %q", events[0].Title)
	}
	if events[0].StartTime != "10:00" || events[0].EndTime != "11:00" {
		t.Errorf("Expected 10:00-11:00, got %s-%s", events[0].StartTime, events[0].EndTime)
	}
}

func TestProcessor_EmptyEverywhereIsNotAnError(t *testing.T) {
	server := servePage(t, "<html><body><p>Nothing structured here.</p></body></html>")

	semantic := &fakeSemantic{enabled: true}
	p := newTestProcessor(t, semantic)

	events, err := p.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Empty extraction must not be an error, got: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected zero events, got %d", len(events))
	}
	if semantic.calls != 1 {
		t.Errorf("Expected semantic fallback to have been tried once, got %d calls", semantic.calls)
	}
}

func TestProcessor_SemanticSkippedWhenDisabled(t *testing.T) {
	server := servePage(t, "<html><body><p>Nothing structured here.</p></body></html>")

	semantic := &fakeSemantic{enabled: false}
	p := newTestProcessor(t, semantic)

	events, err := p.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected zero events, got %d", len(events))
	}
	if semantic.calls != 0 {
		t.Errorf("Disabled semantic extractor must not be called, got %d calls", semantic.calls)
	}
}

func TestProcessor_FeedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssSample))
	}))
	t.Cleanup(server.Close)

	p := newTestProcessor(t, &fakeSemantic{})

	events, err := p.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events from the feed body, got %d", len(events))
	}
	if events[0].Title != "Spring Concert" || events[0].Date != "2025-03-15" {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
}

func TestProcessor_FetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	p := newTestProcessor(t, &fakeSemantic{})

	if _, err := p.Run(context.Background(), server.URL); !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch for a 404 response, got %v", err)
	}

	// Unreachable host
	if _, err := p.Run(context.Background(), "http://127.0.0.1:0/"); !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch for an unreachable host, got %v", err)
	}
}

func TestNormalizeDraft(t *testing.T) {
	p := &Processor{}

	tests := []struct {
		name  string
		draft Draft
		ok    bool
		start string
		end   string
	}{
		{"missing title", Draft{DateText: "3/15/2025"}, false, "", ""},
		{"missing date text", Draft{Title: "X"}, false, "", ""},
		{"unparseable date", Draft{Title: "X", DateText: "someday"}, false, "", ""},
		{"date only", Draft{Title: "X", DateText: "3/15/2025"}, true, "09:00", "17:00"},
		{"start only", Draft{Title: "X", DateText: "3/15/2025", TimeText: "2:30 PM"}, true, "14:30", "15:30"},
		{"full range", Draft{Title: "X", DateText: "3/15/2025", TimeText: "2:30 PM - 3:45 PM"}, true, "14:30", "15:45"},
		{"inverted range", Draft{Title: "X", DateText: "3/15/2025", TimeText: "3:00 PM - 2:00 PM"}, true, "15:00", "16:00"},
	}

	for _, tt := range tests {
		event, ok := p.normalizeDraft(tt.draft)
		if ok != tt.ok {
			t.Errorf("%s: expected ok=%v, got %v", tt.name, tt.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if event.StartTime != tt.start || event.EndTime != tt.end {
			t.Errorf("%s: expected %s-%s, got %s-%s", tt.name, tt.start, tt.end, event.StartTime, event.EndTime)
		}
	}
}

func TestAddHour(t *testing.T) {
	if got := addHour("14:30"); got != "15:30" {
		t.Errorf("Expected 15:30, got %s", got)
	}
	if got := addHour("23:30"); got != "23:59" {
		t.Errorf("Expected cap at 23:59, got %s", got)
	}
}

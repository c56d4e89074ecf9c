package scrape

// Scraping pipeline types

// Draft is the loosely-typed intermediate produced by an extractor.
// Every field is optional; unusable drafts are rejected during
// normalization, not at extraction time.
type Draft struct {
	Title       string
	DateText    string // Free-form date text, unparsed
	TimeText    string // Free-form time text, unparsed
	Location    string
	Description string
	Recurrence  []string // Recurrence rules, semantic extractor only
	Source      string   // Extractor that produced the draft
}

// Extractor source tags
const (
	SourceHeuristic = "heuristic"
	SourceInline    = "inline"
	SourceFeed      = "feed"
	SourceSemantic  = "semantic"
)

// Event is the canonical, submission-ready record. Invariant: Title is
// non-empty, Date is a resolved YYYY-MM-DD, StartTime and EndTime are
// 24-hour HH:MM with EndTime >= StartTime.
type Event struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Recurrence  []string `json:"recurrence,omitempty"`
}

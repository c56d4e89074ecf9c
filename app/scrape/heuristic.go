package scrape

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/calcomb/calcomb/app/profile"
)

// Heuristic extracts event drafts from a parsed document by walking an
// ordered table of selector families. Families are non-exclusive: every
// family is tried and every match contributes a candidate, so the same
// DOM node may yield more than one draft.
type Heuristic struct {
	profile *profile.Profile
}

func NewHeuristic(p *profile.Profile) *Heuristic {
	return &Heuristic{profile: p}
}

// inlineDatePattern matches month-name dates embedded in running text,
// e.g. "March 15, 2025" or "Sep 3rd 2025"
var inlineDatePattern = regexp.MustCompile(`(?i)\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2}(?:st|nd|rd|th)?,?\s*\d{4}\b`)

const inlineTitleLimit = 100

// Run scans the document and returns zero or more drafts. Candidates
// missing a title or date text are silently discarded. When no family
// produces a draft, a secondary pass scans text nodes for inline
// month-name dates.
func (h *Heuristic) Run(doc *goquery.Document) []Draft {
	drafts := make([]Draft, 0)

	for _, family := range h.profile.Families {
		matched := 0

		doc.Find(family.Selector).Each(func(i int, sel *goquery.Selection) {
			matched++

			draft, ok := h.extractCandidate(sel)
			if !ok {
				return
			}

			drafts = append(drafts, draft)
		})

		slog.Debug("Selector family scanned", "tag", family.Tag, "matched", matched, "drafts", len(drafts))
	}

	if len(drafts) == 0 {
		drafts = h.scanInlineDates(doc)
	}

	return drafts
}

// extractCandidate probes the field selector lists against one candidate
// element. A candidate becomes a draft only when both title and date text
// are non-empty.
func (h *Heuristic) extractCandidate(sel *goquery.Selection) (Draft, bool) {
	title := firstText(sel, h.profile.Fields.Title)
	dateText := h.findDateText(sel)

	if title == "" || dateText == "" {
		return Draft{}, false
	}

	return Draft{
		Title:       title,
		DateText:    dateText,
		TimeText:    firstText(sel, h.profile.Fields.Time),
		Location:    firstText(sel, h.profile.Fields.Location),
		Description: firstText(sel, h.profile.Fields.Description),
		Source:      SourceHeuristic,
	}, true
}

// findDateText resolves date text from the field selectors, falling back
// to the matched element's datetime attribute and the candidate's own
// data-date attribute.
func (h *Heuristic) findDateText(sel *goquery.Selection) string {
	for _, selector := range h.profile.Fields.Date {
		found := sel.Find(selector).First()
		if found.Length() == 0 {
			continue
		}

		if text := strings.TrimSpace(found.Text()); text != "" {
			return text
		}
		if attr, ok := found.Attr("datetime"); ok && strings.TrimSpace(attr) != "" {
			return strings.TrimSpace(attr)
		}
	}

	if attr, ok := sel.Attr("data-date"); ok && strings.TrimSpace(attr) != "" {
		return strings.TrimSpace(attr)
	}

	return ""
}

// scanInlineDates is the secondary fallback: any text node containing an
// inline month-name date becomes a draft whose title is the first 100
// characters of the containing text.
func (h *Heuristic) scanInlineDates(doc *goquery.Document) []Draft {
	drafts := make([]Draft, 0)
	seen := make(map[string]bool)

	doc.Find("*").Contents().Each(func(i int, sel *goquery.Selection) {
		if goquery.NodeName(sel) != "#text" {
			return
		}

		text := strings.TrimSpace(sel.Text())
		if len(text) <= 10 {
			return
		}

		match := inlineDatePattern.FindString(text)
		if match == "" {
			return
		}

		// identical text repeated across nodes yields one draft
		if seen[text] {
			return
		}
		seen[text] = true

		title := text
		if len(title) > inlineTitleLimit {
			title = title[:inlineTitleLimit]
		}

		drafts = append(drafts, Draft{
			Title:    title,
			DateText: match,
			Source:   SourceInline,
		})
	})

	if len(drafts) > 0 {
		slog.Debug("Inline date fallback produced drafts", "count", len(drafts))
	}

	return drafts
}

// firstText probes selectors in priority order and returns the first
// non-empty trimmed text, or empty when nothing matches
func firstText(sel *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

package profile

// Extraction profile types. A profile describes how the heuristic extractor
// walks a page: an ordered list of selector families locating event-like
// candidates, and prioritized per-field selector lists probed inside each
// candidate.

type Profile struct {
	Name     string         // Derived from filename (without .yml extension)
	Families []Family       `yaml:"families"`
	Fields   FieldSelectors `yaml:"fields"`
}

// Family is one structural pattern for locating candidate elements.
// Families are tried in order and every family contributes matches;
// overlapping matches across families are accepted.
type Family struct {
	Tag      string `yaml:"tag"`
	Selector string `yaml:"selector"`
}

// FieldSelectors holds prioritized selector lists per event field.
// The first selector yielding non-empty text wins for a field.
type FieldSelectors struct {
	Title       []string `yaml:"title"`
	Date        []string `yaml:"date"`
	Time        []string `yaml:"time"`
	Location    []string `yaml:"location"`
	Description []string `yaml:"description"`
}

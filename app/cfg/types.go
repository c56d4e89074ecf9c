package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port        string
	ProfilesDir string
	WorkerCount int

	// Scraping configuration
	FetchTimeout int
	UserAgent    string

	// Semantic extraction configuration
	OpenAIKey          string
	OpenAIModel        string
	EnrichDescriptions bool

	// Calendar configuration
	CalendarID    string
	EventTimezone string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

package database

import (
	"time"
)

// Batch records the outcome of one submission batch. Scraped events are
// never persisted; only the aggregate counts are kept.
type Batch struct {
	ID          string // Database UUID
	URL         string // Page the batch was scraped from
	EventsFound int
	Successful  int
	Failed      int
	CreatedAt   time.Time
}

// Stats aggregates submission history across all recorded batches
type Stats struct {
	Batches     int
	EventsFound int
	Successful  int
	Failed      int
}

type BatchRepository interface {
	RecordBatch(url string, eventsFound, successful, failed int) (string, error)
	GetStats() (*Stats, error)
	GetRecentBatches(limit int) ([]Batch, error)
	GetBatchCount() (int, error)
}

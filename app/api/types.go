package api

import (
	"context"

	"github.com/calcomb/calcomb/app/calendar"
	"github.com/calcomb/calcomb/app/database"
	"github.com/calcomb/calcomb/app/scrape"
)

// EventProcessor is the extraction pipeline boundary consumed by the
// handlers
type EventProcessor interface {
	Run(ctx context.Context, pageURL string) ([]scrape.Event, error)
}

// InserterFactory builds a calendar inserter bound to one bearer token
type InserterFactory func(ctx context.Context, accessToken string) (calendar.Inserter, error)

type Handler struct {
	processor EventProcessor
	batcher   *calendar.Batcher
	batchRepo database.BatchRepository
	inserters InserterFactory
}

type ProcessRequest struct {
	URL string `json:"url" binding:"required"`
}

type ProcessResponse struct {
	Message string                     `json:"message"`
	Added   int                        `json:"added"`
	Failed  int                        `json:"failed"`
	Errors  []calendar.SubmissionError `json:"errors"`
	Events  []scrape.Event             `json:"events"`
}

type PreviewResponse struct {
	Total  int            `json:"total"`
	Events []scrape.Event `json:"events"`
}

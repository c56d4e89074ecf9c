package calendar

import (
	"context"
	"log/slog"
	"sync"

	"github.com/calcomb/calcomb/app/scrape"
)

// SubmissionError records one failed insert: the originating event's
// title for correlation and the failure classification
type SubmissionError struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// Outcome aggregates per-event submission results for one batch.
// Successes are counted, not itemized; Errors lists failures only.
type Outcome struct {
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Errors     []SubmissionError `json:"errors"`
}

// AllFailed reports the distinguished batch-failure condition: at least
// one event was attempted and none succeeded.
func (o Outcome) AllFailed() bool {
	return o.Failed > 0 && o.Successful == 0
}

// Batcher inserts a batch of events with bounded concurrency. One
// event's failure never aborts the batch; each failure is classified and
// recorded while sibling inserts continue. No ordering is guaranteed on
// the Errors list.
type Batcher struct {
	workerCount int
}

func NewBatcher(workerCount int) *Batcher {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Batcher{workerCount: workerCount}
}

// Run submits every event and returns the aggregate outcome.
func (b *Batcher) Run(ctx context.Context, inserter Inserter, events []scrape.Event) Outcome {
	outcome := Outcome{Errors: []SubmissionError{}}
	if len(events) == 0 {
		return outcome
	}

	workers := b.workerCount
	if workers > len(events) {
		workers = len(events)
	}

	jobs := make(chan scrape.Event)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for event := range jobs {
				remoteID, err := inserter.Insert(ctx, event)

				mu.Lock()
				if err != nil {
					class := Classify(err)
					outcome.Failed++
					outcome.Errors = append(outcome.Errors, SubmissionError{
						Event: event.Title,
						Error: string(class),
					})
					slog.Warn("Event submission failed", "title", event.Title, "classification", string(class), "error", err)
				} else {
					outcome.Successful++
					slog.Debug("Event submitted", "title", event.Title, "remote_id", remoteID)
				}
				mu.Unlock()
			}
		}()
	}

	for _, event := range events {
		jobs <- event
	}
	close(jobs)
	wg.Wait()

	slog.Info("Batch submission completed",
		"total", len(events),
		"successful", outcome.Successful,
		"failed", outcome.Failed)

	return outcome
}

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calcomb/calcomb/app/calendar"
	"github.com/calcomb/calcomb/app/database"
	"github.com/calcomb/calcomb/app/scrape"
)

func NewHandler(processor EventProcessor, batcher *calendar.Batcher,
	batchRepo database.BatchRepository, inserters InserterFactory) *Handler {
	return &Handler{
		processor: processor,
		batcher:   batcher,
		batchRepo: batchRepo,
		inserters: inserters,
	}
}

// ProcessEvents scrapes the submitted URL and inserts the extracted
// events into the caller's calendar. The bearer token gates the write
// path; extraction faults abort the whole request while per-event
// submission faults are isolated and itemized.
func (h *Handler) ProcessEvents(c *gin.Context) {
	token := c.GetString(ContextKeyAccessToken)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in again"})
		return
	}

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	if !isValidURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid URL"})
		return
	}

	ctx := c.Request.Context()

	events, err := h.processor.Run(ctx, req.URL)
	if err != nil {
		slog.Error("Extraction failed", "url", req.URL, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, scrape.ErrFetch) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "Failed to scrape events from the provided URL"})
		return
	}

	if len(events) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No events found on the provided page"})
		return
	}

	inserter, err := h.inserters(ctx, token)
	if err != nil {
		slog.Error("Failed to create calendar client", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed. Please sign out and sign in again."})
		return
	}

	outcome := h.batcher.Run(ctx, inserter, events)

	h.recordBatch(req.URL, len(events), outcome)

	resp := ProcessResponse{
		Message: "Events processed",
		Added:   outcome.Successful,
		Failed:  outcome.Failed,
		Errors:  outcome.Errors,
		Events:  events,
	}

	if outcome.AllFailed() {
		resp.Message = "All event submissions failed"
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PreviewEvents runs extraction only: no credential, no submission.
func (h *Handler) PreviewEvents(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	if !isValidURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid URL"})
		return
	}

	events, err := h.processor.Run(c.Request.Context(), req.URL)
	if err != nil {
		slog.Error("Extraction failed", "url", req.URL, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, scrape.ErrFetch) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "Failed to scrape events from the provided URL"})
		return
	}

	if len(events) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No events found on the provided page"})
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		Total:  len(events),
		Events: events,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.batchRepo.GetBatchCount(); err == nil {
		health["batches"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.batchRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	recent, err := h.batchRepo.GetRecentBatches(20)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_batches", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	batches := make([]map[string]interface{}, 0, len(recent))
	for _, b := range recent {
		batches = append(batches, map[string]interface{}{
			"url":          b.URL,
			"events_found": b.EventsFound,
			"successful":   b.Successful,
			"failed":       b.Failed,
			"created_at":   b.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"batches":      stats.Batches,
		"events_found": stats.EventsFound,
		"successful":   stats.Successful,
		"failed":       stats.Failed,
		"recent":       batches,
	})
}

// recordBatch stores the batch outcome. Recording is best-effort; a
// storage failure never affects the response.
func (h *Handler) recordBatch(pageURL string, eventsFound int, outcome calendar.Outcome) {
	if h.batchRepo == nil {
		return
	}

	if _, err := h.batchRepo.RecordBatch(pageURL, eventsFound, outcome.Successful, outcome.Failed); err != nil {
		slog.Warn("Failed to record batch outcome", "url", pageURL, "error", err)
	}
}

func isValidURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

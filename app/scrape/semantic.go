package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	readability "codeberg.org/readeck/go-readability"
	"github.com/sashabaranov/go-openai"
)

// Semantic is the fallback extractor: when the DOM heuristics find
// nothing, the page content is handed to a language model with a strict
// output contract. Every failure on this path degrades to zero drafts;
// nothing here may surface as the request's error.
type Semantic struct {
	client *openai.Client
	model  string
	enrich bool
}

const extractionInstruction = `You are a calendar event extraction expert. Extract events from HTML content.
Return a JSON object with an "events" array. Each event has these fields:
- summary (required): event title/name
- description: additional details
- location: where the event takes place
- date: YYYY-MM-DD format
- startTime: HH:mm 24-hour format
- endTime: HH:mm 24-hour format
- recurrence: array of recurrence rules (e.g. ["FREQ=WEEKLY;UNTIL=20240531"])`

const enrichmentInstruction = "You enhance calendar event descriptions by adding relevant context and formatting."

// maxPromptBytes bounds how much page content is sent to the model
const maxPromptBytes = 48 * 1024

// NewSemantic creates the fallback extractor. An empty API key disables
// it: Run returns zero drafts without making any call.
func NewSemantic(apiKey, model string, enrich bool) *Semantic {
	s := &Semantic{model: model, enrich: enrich}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

// NewSemanticWithBaseURL creates an extractor pointed at an alternative
// API endpoint. Used by tests.
func NewSemanticWithBaseURL(apiKey, model, baseURL string, enrich bool) *Semantic {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	return &Semantic{
		client: openai.NewClientWithConfig(config),
		model:  model,
		enrich: enrich,
	}
}

func (s *Semantic) Enabled() bool {
	return s != nil && s.client != nil
}

// semanticEvent mirrors the instruction schema
type semanticEvent struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Date        string   `json:"date"`
	StartTime   string   `json:"startTime,omitempty"`
	EndTime     string   `json:"endTime,omitempty"`
	Recurrence  []string `json:"recurrence,omitempty"`
}

type semanticResult struct {
	Events []semanticEvent `json:"events"`
}

// Run extracts drafts from raw page markup via the model. Malformed or
// missing output yields zero drafts, logged but never propagated.
func (s *Semantic) Run(ctx context.Context, rawHTML string) []Draft {
	if !s.Enabled() {
		return nil
	}

	content := s.reduceContent(rawHTML)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionInstruction},
			{Role: openai.ChatMessageRoleUser, Content: "Extract calendar events from this HTML: " + content},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		slog.Warn("Semantic extraction call failed", "error", err)
		return nil
	}

	if len(resp.Choices) == 0 {
		slog.Warn("Semantic extraction returned no choices")
		return nil
	}

	var result semanticResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		slog.Warn("Semantic extraction returned malformed JSON", "error", err)
		return nil
	}

	drafts := make([]Draft, 0, len(result.Events))

	for _, ev := range result.Events {
		if ev.Summary == "" || ev.Date == "" {
			continue
		}

		draft := Draft{
			Title:       strings.TrimSpace(ev.Summary),
			DateText:    strings.TrimSpace(ev.Date),
			TimeText:    joinTimeRange(ev.StartTime, ev.EndTime),
			Location:    strings.TrimSpace(ev.Location),
			Description: strings.TrimSpace(ev.Description),
			Recurrence:  ev.Recurrence,
			Source:      SourceSemantic,
		}

		if s.enrich {
			draft = s.enrichDescription(ctx, draft)
		}

		drafts = append(drafts, draft)
	}

	slog.Debug("Semantic extraction completed", "events", len(result.Events), "drafts", len(drafts))

	return drafts
}

// enrichDescription asks the model for a richer description. Any failure
// returns the draft unmodified.
func (s *Semantic) enrichDescription(ctx context.Context, draft Draft) Draft {
	payload, err := json.Marshal(draft)
	if err != nil {
		return draft
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enrichmentInstruction},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Enhance this calendar event with more context and better formatting:\n%s", payload)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		slog.Debug("Description enrichment failed", "title", draft.Title, "error", err)
		return draft
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return draft
	}

	draft.Description = strings.TrimSpace(resp.Choices[0].Message.Content)
	return draft
}

// reduceContent strips the page down to its readable core before
// prompting; the raw markup is used when extraction fails, truncated to
// the prompt budget either way
func (s *Semantic) reduceContent(rawHTML string) string {
	content := rawHTML

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err == nil && article.Content != "" {
		content = article.Content
	}

	if len(content) > maxPromptBytes {
		content = content[:maxPromptBytes]
	}

	return content
}

func joinTimeRange(start, end string) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	switch {
	case start == "":
		return ""
	case end == "":
		return start
	default:
		return start + " - " + end
	}
}

package scrape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// chatResponse builds a minimal chat completion payload whose assistant
// message carries the given content
func chatResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

func newSemanticServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Semantic) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := NewSemanticWithBaseURL("test-key", "test-model", server.URL, false)
	return server, s
}

func TestSemantic_ExtractsDrafts(t *testing.T) {
	payload := `{"events":[{"summary":"Parent Night","description":"Q&A with teachers","location":"Auditorium","date":"2025-03-15","startTime":"18:00","endTime":"20:00","recurrence":["FREQ=WEEKLY;COUNT=4"]}]}`

	_, s := newSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse(payload))
	})

	drafts := s.Run(context.Background(), "<html><body>whatever</body></html>")

	if len(drafts) != 1 {
		t.Fatalf("Expected 1 draft, got %d", len(drafts))
	}

	d := drafts[0]
	if d.Title != "Parent Night" {
		t.Errorf("Expected title 'Parent Night', got %q", d.Title)
	}
	if d.DateText != "2025-03-15" {
		t.Errorf("Expected date text '2025-03-15', got %q", d.DateText)
	}
	if d.TimeText != "18:00 - 20:00" {
		t.Errorf("Expected time text '18:00 - 20:00', got %q", d.TimeText)
	}
	if d.Location != "Auditorium" {
		t.Errorf("Expected location 'Auditorium', got %q", d.Location)
	}
	if len(d.Recurrence) != 1 || d.Recurrence[0] != "FREQ=WEEKLY;COUNT=4" {
		t.Errorf("Expected recurrence rules to carry over, got %v", d.Recurrence)
	}
	if d.Source != SourceSemantic {
		t.Errorf("Expected source %q, got %q", SourceSemantic, d.Source)
	}
}

func TestSemantic_EventsWithoutSummaryOrDateSkipped(t *testing.T) {
	payload := `{"events":[{"summary":"","date":"2025-03-15"},{"summary":"No Date"},{"summary":"Valid","date":"2025-04-01"}]}`

	_, s := newSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse(payload))
	})

	drafts := s.Run(context.Background(), "<html></html>")

	if len(drafts) != 1 {
		t.Fatalf("Expected only the complete event to survive, got %d drafts", len(drafts))
	}
	if drafts[0].Title != "Valid" {
		t.Errorf("Expected title 'Valid', got %q", drafts[0].Title)
	}
}

func TestSemantic_MalformedOutputDegradesToEmpty(t *testing.T) {
	_, s := newSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse("not json at all"))
	})

	if drafts := s.Run(context.Background(), "<html></html>"); len(drafts) != 0 {
		t.Errorf("Expected malformed output to yield zero drafts, got %d", len(drafts))
	}
}

func TestSemantic_ServiceErrorDegradesToEmpty(t *testing.T) {
	_, s := newSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	})

	if drafts := s.Run(context.Background(), "<html></html>"); len(drafts) != 0 {
		t.Errorf("Expected service error to yield zero drafts, got %d", len(drafts))
	}
}

func TestSemantic_DisabledWithoutKey(t *testing.T) {
	s := NewSemantic("", "test-model", false)

	if s.Enabled() {
		t.Error("Expected extractor without an API key to be disabled")
	}
	if drafts := s.Run(context.Background(), "<html></html>"); drafts != nil {
		t.Errorf("Expected nil drafts from a disabled extractor, got %v", drafts)
	}
}

func TestSemantic_EnrichmentReplacesDescription(t *testing.T) {
	extraction := `{"events":[{"summary":"Field Trip","description":"zoo","date":"2025-05-02"}]}`

	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			json.NewEncoder(w).Encode(chatResponse(extraction))
			return
		}
		json.NewEncoder(w).Encode(chatResponse("A full-day visit to the city zoo, including the penguin exhibit."))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewSemanticWithBaseURL("test-key", "test-model", server.URL, true)
	drafts := s.Run(context.Background(), "<html></html>")

	if len(drafts) != 1 {
		t.Fatalf("Expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].Description != "A full-day visit to the city zoo, including the penguin exhibit." {
		t.Errorf("Expected enriched description, got %q", drafts[0].Description)
	}
}

func TestSemantic_EnrichmentFailureKeepsOriginal(t *testing.T) {
	extraction := `{"events":[{"summary":"Field Trip","description":"zoo","date":"2025-05-02"}]}`

	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			json.NewEncoder(w).Encode(chatResponse(extraction))
			return
		}
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewSemanticWithBaseURL("test-key", "test-model", server.URL, true)
	drafts := s.Run(context.Background(), "<html></html>")

	if len(drafts) != 1 {
		t.Fatalf("Expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].Description != "zoo" {
		t.Errorf("Expected original description to survive enrichment failure, got %q", drafts[0].Description)
	}
}

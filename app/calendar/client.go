package calendar

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/calcomb/calcomb/app/scrape"
)

// Classification buckets remote insert failures for caller diagnostics
type Classification string

const (
	ClassAuth       Classification = "auth"
	ClassValidation Classification = "validation"
	ClassRate       Classification = "rate"
	ClassUnknown    Classification = "unknown"
)

// Inserter is the remote calendar boundary consumed by the Batcher
type Inserter interface {
	Insert(ctx context.Context, event scrape.Event) (string, error)
}

// Client inserts events into Google Calendar on behalf of a bearer
// credential. The token is read-only input; refresh is the caller's
// concern.
type Client struct {
	service    *gcal.Service
	calendarID string
	timezone   string
}

// NewClient creates a Google Calendar client from an OAuth access token.
func NewClient(ctx context.Context, accessToken, calendarID, timezone string) (*Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	httpClient := oauth2.NewClient(ctx, source)

	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{
		service:    service,
		calendarID: calendarID,
		timezone:   timezone,
	}, nil
}

// Insert creates one remote event and returns its remote ID.
func (c *Client) Insert(ctx context.Context, event scrape.Event) (string, error) {
	remote := &gcal.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
		Start: &gcal.EventDateTime{
			DateTime: fmt.Sprintf("%sT%s:00", event.Date, event.StartTime),
			TimeZone: c.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: fmt.Sprintf("%sT%s:00", event.Date, event.EndTime),
			TimeZone: c.timezone,
		},
		Recurrence: ValidRules(event.Recurrence),
	}

	created, err := c.service.Events.Insert(c.calendarID, remote).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	return created.Id, nil
}

// rate-limit reasons Google reports under a 403
var rateReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
}

// Classify maps a remote insert error to its failure classification.
func Classify(err error) Classification {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return ClassUnknown
	}

	switch gerr.Code {
	case 401:
		return ClassAuth
	case 403:
		for _, item := range gerr.Errors {
			if rateReasons[item.Reason] {
				return ClassRate
			}
		}
		return ClassAuth
	case 400, 409, 422:
		return ClassValidation
	case 429:
		return ClassRate
	default:
		return ClassUnknown
	}
}

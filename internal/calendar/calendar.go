// Package calendar maps event descriptors onto the calendar provider's
// create/delete/list operations. Every call obtains its credential through
// the token lifecycle manager; this package never touches stored tokens.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"calbot/internal/auth"
	"calbot/internal/models"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ProviderError is a non-success response from the calendar provider. It is
// surfaced with its status for diagnosis, never silently dropped for
// creation.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("calendar provider error %d: %s", e.Status, e.Body)
}

// CredentialSource is the token lifecycle manager's choke point: every
// provider call goes through it.
type CredentialSource interface {
	Credential(ctx context.Context) (*models.Credential, error)
}

// Synchronizer performs calendar mutations for one calendar.
type Synchronizer struct {
	auth       CredentialSource
	calendarID string
	loc        *time.Location
	logger     *slog.Logger

	// endpoint overrides the provider base URL in tests.
	endpoint string
}

// NewSynchronizer creates a Synchronizer for calendarID (typically
// "primary") with times rendered in loc.
func NewSynchronizer(logger *slog.Logger, creds CredentialSource, calendarID string, loc *time.Location) *Synchronizer {
	return &Synchronizer{auth: creds, calendarID: calendarID, loc: loc, logger: logger}
}

// service builds a calendar client around a currently valid access token.
func (s *Synchronizer) service(ctx context.Context) (*gcal.Service, error) {
	cred, err := s.auth.Credential(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.AccessToken})),
	}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// Create inserts one event built from the descriptor. The descriptor is
// assumed complete — missing times are an extraction-contract bug, not
// something to guess here. No automatic retry: a blind retry of a create
// could double-book.
func (s *Synchronizer) Create(ctx context.Context, d models.EventDescriptor) (*models.RemoteEvent, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	ev := toProviderEvent(d, s.loc)
	created, err := svc.Events.Insert(s.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, wrapProviderError(err)
	}

	s.logger.Info("Created calendar event", "title", d.Title, "id", created.Id)
	return fromProviderEvent(created), nil
}

// Delete removes an event by id. Best-effort: an already-deleted event or a
// transient failure is logged and reported as false, never fatal — the
// caller decides user messaging.
func (s *Synchronizer) Delete(ctx context.Context, eventID string) bool {
	svc, err := s.service(ctx)
	if err != nil {
		s.logger.Warn("Could not delete event", "id", eventID, "error", err)
		return false
	}

	if err := svc.Events.Delete(s.calendarID, eventID).Context(ctx).Do(); err != nil {
		s.logger.Warn("Could not delete event", "id", eventID, "error", err)
		return false
	}

	s.logger.Info("Deleted calendar event", "id", eventID)
	return true
}

// ListRange fetches the calendar's events between from and to, with single
// occurrences expanded and chronological ordering.
func (s *Synchronizer) ListRange(ctx context.Context, from, to time.Time) ([]*models.RemoteEvent, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	res, err := svc.Events.List(s.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapProviderError(err)
	}

	events := make([]*models.RemoteEvent, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, fromProviderEvent(item))
	}
	return events, nil
}

// toProviderEvent combines the descriptor's date and times into provider
// date-time values carrying the fixed zone explicitly.
func toProviderEvent(d models.EventDescriptor, loc *time.Location) *gcal.Event {
	endDate := d.EndDate
	if endDate == "" {
		endDate = d.Date
	}
	return &gcal.Event{
		Summary:     d.Title,
		Description: d.Description,
		Location:    d.Location,
		Start: &gcal.EventDateTime{
			DateTime: fmt.Sprintf("%sT%s:00", d.Date, d.StartTime),
			TimeZone: loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: fmt.Sprintf("%sT%s:00", endDate, d.EndTime),
			TimeZone: loc.String(),
		},
	}
}

func fromProviderEvent(ev *gcal.Event) *models.RemoteEvent {
	remote := &models.RemoteEvent{
		ID:          ev.Id,
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		HTMLLink:    ev.HtmlLink,
	}
	if ev.Start != nil {
		remote.Start = ev.Start.DateTime
		if remote.Start == "" {
			remote.Start = ev.Start.Date
		}
	}
	if ev.End != nil {
		remote.End = ev.End.DateTime
		if remote.End == "" {
			remote.End = ev.End.Date
		}
	}
	return remote
}

// wrapProviderError maps the client library's error type onto the
// pipeline's taxonomy, passing auth failures through untouched.
func wrapProviderError(err error) error {
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{Status: apiErr.Code, Body: apiErr.Message}
	}
	return fmt.Errorf("calendar request failed: %w", err)
}

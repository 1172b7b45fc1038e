// Package interaction records how users react to exposed careers and turns
// that history into ranker training data.
package interaction

import (
	"context"
	"strings"
	"time"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/repository"
)

// EventType is the kind of user interaction.
type EventType string

// Event types. Everything but an impression is positive intent.
const (
	EventImpression EventType = "impression"
	EventClick      EventType = "click"
	EventSave       EventType = "save"
	EventApply      EventType = "apply"
)

// ParseEventType validates a wire value.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case EventImpression, EventClick, EventSave, EventApply:
		return t, nil
	}
	return "", errs.Validationf("unknown event type %q", s)
}

// Positive reports whether the event signals interest.
func (t EventType) Positive() bool {
	return t == EventClick || t == EventSave || t == EventApply
}

// Event is one logged interaction. Events are append-only.
type Event struct {
	ID         string
	UserID     *int64
	SessionID  string
	JobID      string
	Type       EventType
	RankPos    *int
	ScoreShown *float64
	Timestamp  time.Time
}

// Validate checks the fields every stored event must have.
func (e Event) Validate() error {
	if strings.TrimSpace(e.JobID) == "" {
		return errs.Validationf("job_id is required")
	}
	if _, err := ParseEventType(string(e.Type)); err != nil {
		return err
	}
	if e.RankPos != nil && *e.RankPos < 0 {
		return errs.Validationf("rank_pos must not be negative")
	}
	return nil
}

// Trainable reports whether the event can form a (user, job) pair.
func (e Event) Trainable() bool {
	return e.UserID != nil && e.JobID != ""
}

// EventStore persists interaction events. There is no update or delete.
type EventStore interface {
	// Append stores events and returns them with ids and timestamps set.
	Append(ctx context.Context, events ...Event) ([]Event, error)

	// Find returns events matching options, oldest first.
	Find(ctx context.Context, options ...repository.Option) ([]Event, error)

	// Count returns the number of events matching options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}

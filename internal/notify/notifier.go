package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dailyroster/rosterd/internal/model"
)

// EventKind identifies the type of outbound notification
type EventKind string

const (
	// EventReminder nudges players who have not submitted for the date
	EventReminder EventKind = "reminder"
	// EventAutoDeclined tells a player the cutoff passed without them
	EventAutoDeclined EventKind = "auto_declined"
	// EventDailySummary carries the final confirmed list for a date
	EventDailySummary EventKind = "daily_summary"
	// EventQuorumReached fires once per date when the Yes-count first hits quorum
	EventQuorumReached EventKind = "quorum_reached"
	// EventQuorumLost fires when the Yes-count drops back below quorum
	EventQuorumLost EventKind = "quorum_lost"
	// EventWarningIssued fires when the policy engine increments a warning
	EventWarningIssued EventKind = "warning_issued"
	// EventAutoRemoveFlagged fires when a player crosses a removal threshold
	EventAutoRemoveFlagged EventKind = "auto_remove_flagged"
)

// Event is one outbound notification. Delivery is fire-and-forget;
// the engine never blocks on confirmation.
type Event struct {
	ID         string
	Kind       EventKind
	Date       model.Date
	Recipients []model.Identity
	Payload    any
	OccurredAt time.Time
}

// NewEvent builds an event with a fresh ID
func NewEvent(kind EventKind, date model.Date, recipients []model.Identity, payload any, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Date:       date,
		Recipients: recipients,
		Payload:    payload,
		OccurredAt: at,
	}
}

// SummaryPayload contains data for daily summary events
type SummaryPayload struct {
	Confirmed []model.Identity
}

// QuorumPayload contains data for quorum reached/lost events
type QuorumPayload struct {
	Count  int
	Quorum int
}

// WarningPayload contains data for warning issued events
type WarningPayload struct {
	Player   model.Identity
	Warnings int
}

// Notifier delivers events to the outside world (email, chat, ...).
// Implementations must honor ctx cancellation; a timeout is a
// retryable failure, not data loss.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LogNotifier writes events to the application log. It is the default
// backend when no external delivery channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ Notifier = (*LogNotifier)(nil)

// Send logs the event
func (n *LogNotifier) Send(ctx context.Context, event Event) error {
	recipients := make([]string, len(event.Recipients))
	for i, r := range event.Recipients {
		recipients[i] = string(r)
	}
	n.logger.Info("notification",
		slog.String("event_id", event.ID),
		slog.String("kind", string(event.Kind)),
		slog.String("date", string(event.Date)),
		slog.Any("recipients", recipients),
	)
	return nil
}

// Recorder captures events in memory for tests and audits.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates a Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

var _ Notifier = (*Recorder)(nil)

// Send records the event
func (r *Recorder) Send(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns recorded events of the given kind
func (r *Recorder) OfKind(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

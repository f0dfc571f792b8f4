package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wilhg/toolsrv/pkg/tool"
)

// Recorder journals every dispatched call. It implements tool.Observer; journal
// failures are logged and never reach the caller.
type Recorder struct {
	events EventStore
	logger *slog.Logger
}

// NewRecorder returns a Recorder writing to events.
func NewRecorder(events EventStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{events: events, logger: logger}
}

type callPayload struct {
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

func (r *Recorder) ObserveCall(ctx context.Context, obs tool.Observation) {
	payload, err := json.Marshal(callPayload{Message: obs.Message, DurationMS: obs.Duration.Milliseconds()})
	if err != nil {
		r.logger.ErrorContext(ctx, "journal encode failed", slog.String("call_id", obs.CallID), slog.Any("error", err))
		return
	}
	// Journal writes outlive a cancelled request.
	ctx = context.WithoutCancel(ctx)
	_, err = r.events.AppendEvent(ctx, EventRecord{
		EventID:   uuid.NewString(),
		CallID:    obs.CallID,
		Tool:      obs.Tool,
		Kind:      string(obs.Kind),
		IsError:   !obs.Success,
		Payload:   payload,
		CreatedAt: obs.Started,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "journal append failed",
			slog.String("call_id", obs.CallID),
			slog.String("tool", obs.Tool),
			slog.Any("error", err),
		)
	}
}

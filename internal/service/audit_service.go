package service

import (
	"context"
	"log/slog"

	"videomate-auth/internal/event"
	"videomate-auth/internal/model"
)

// AuditRecorder persists audit entries; the pgx repository implements it.
type AuditRecorder interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

// AuditService records auth events published on the bus. It consumes
// asynchronously so a slow audit write never blocks a login or refresh.
type AuditService struct {
	recorder AuditRecorder
	bus      event.Bus
}

func NewAuditService(recorder AuditRecorder, bus event.Bus) *AuditService {
	return &AuditService{recorder: recorder, bus: bus}
}

// Start subscribes to the bus and consumes events until ctx is cancelled.
func (s *AuditService) Start(ctx context.Context) {
	events, unsubscribe := s.bus.Subscribe()

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.record(ctx, ev)
			}
		}
	}()
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.recorder.Query(ctx, query)
}

func (s *AuditService) record(ctx context.Context, ev event.Event) {
	entry := model.AuditEntry{
		Action:     string(ev.Type),
		OccurredAt: ev.Timestamp,
		Actor:      model.AuditActor{AccountID: ev.ActorID, Username: ev.Username},
		Status:     ev.Status,
		Error:      ev.Error,
	}

	if err := s.recorder.Log(ctx, entry); err != nil {
		slog.Warn("audit entry dropped", "action", entry.Action, "error", err)
	}
}

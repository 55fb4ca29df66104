package intervals

import (
	"context"

	"github.com/claude/stridesync/internal/plan"
)

// EventUploader adapts the client to the plan controller's Uploader.
type EventUploader struct {
	Client *Client
}

// UploadWorkout converts one compiled workout to the event wire format and
// upserts it. The compiled set only reaches here when upload-eligible, so
// the event type matches the sport the calendar service schedules.
func (u *EventUploader) UploadWorkout(ctx context.Context, w plan.CompiledWorkout) error {
	return u.Client.UpsertEvent(ctx, Event{
		Category:       "WORKOUT",
		StartDateLocal: w.StartDateLocal,
		Type:           w.Sport,
		Name:           w.Name,
		Description:    w.Description,
		ExternalID:     w.ExternalID,
	})
}

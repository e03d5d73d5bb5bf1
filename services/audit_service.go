package services

import (
	"context"
	"fmt"

	"pms/models"
	"pms/repositories"
	"pms/types"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// RoomStatusChange is one lifecycle transition to be audited.
type RoomStatusChange struct {
	Before   models.Room
	After    models.Room
	Metadata map[string]interface{}
}

// AuditLogger writes room status changes through the caller's transaction.
type AuditLogger struct{}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

func (a *AuditLogger) LogRoomStatusChange(ctx context.Context, repo repositories.AuditRepository, prop types.PropertyContext, change RoomStatusChange) error {
	var meta datatypes.JSON
	if len(change.Metadata) > 0 {
		raw, err := json.Marshal(change.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		meta = datatypes.JSON(raw)
	}
	entry := &models.RoomStatusLog{
		RoomNo:    change.After.RoomNo,
		OldState:  models.GetRoomState(&change.Before).Name(),
		NewState:  models.GetRoomState(&change.After).Name(),
		OldStatus: change.Before.Status,
		NewStatus: change.After.Status,
		Inspect:   change.After.IsInspect,
		Actor:     prop.Actor,
		RequestID: prop.RequestID,
		Metadata:  meta,
	}
	if err := repo.CreateRoomStatusLog(ctx, entry); err != nil {
		return fmt.Errorf("write room status log: %w", err)
	}
	return nil
}

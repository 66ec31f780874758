package services

import (
	"context"

	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

func audit(ctx context.Context, r repo.Repositories, entityType, entityID, action string, details map[string]any) error {
	return r.AuditLogs.Create(ctx, models.AuditLog{
		EntityType: entityType,
		EntityID:   &entityID,
		Action:     action,
		Details:    details,
	})
}

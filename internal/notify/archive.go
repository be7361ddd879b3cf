package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"hangout-service/internal/models"
)

type objectUploader interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// MinIOArchiver writes terminal plan snapshots to object storage
type MinIOArchiver struct {
	uploader objectUploader
}

func NewMinIOArchiver(uploader objectUploader) *MinIOArchiver {
	return &MinIOArchiver{uploader: uploader}
}

// ObjectName is the key a plan's snapshot is stored under. Confirming and
// then cancelling a plan keeps both snapshots.
func ObjectName(snapshot *models.PlanSnapshot) string {
	return fmt.Sprintf("plans/%d/%s.json", snapshot.Plan.ID, snapshot.Plan.Phase)
}

func (a *MinIOArchiver) Archive(ctx context.Context, snapshot *models.PlanSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	url, err := a.uploader.Upload(ctx, ObjectName(snapshot), "application/json", data)
	if err != nil {
		return err
	}

	slog.Info("Archived plan snapshot", "planID", snapshot.Plan.ID, "phase", snapshot.Plan.Phase, "url", url)
	return nil
}

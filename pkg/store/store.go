// Package store persists consultation history. Three backends: in-memory
// for tests, SQLite for single-node deployments, Firestore for Cloud Run.
package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/config"
	"github.com/luna-ai/luna/pkg/schemas"
)

// Store persists and recalls consultation records.
type Store interface {
	// SaveConsultation persists one record.
	SaveConsultation(ctx context.Context, rec *schemas.ConsultationRecord) error
	// ListConsultations returns the most recent records for a user, newest
	// first, up to limit.
	ListConsultations(ctx context.Context, userID string, limit int) ([]*schemas.ConsultationRecord, error)
	// Close releases backend resources.
	Close() error
}

const defaultListLimit = 20

// NewFromConfig picks a backend: Firestore when a GCP project is configured,
// then SQLite when a path is set, otherwise in-memory.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch {
	case cfg.GoogleCloudProject != "":
		logger.Info("using firestore consultation store",
			zap.String("project", cfg.GoogleCloudProject))
		return NewFirestoreStore(ctx, cfg.GoogleCloudProject)
	case cfg.SQLitePath != "":
		logger.Info("using sqlite consultation store", zap.String("path", cfg.SQLitePath))
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		logger.Info("using in-memory consultation store")
		return NewMemoryStore(), nil
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

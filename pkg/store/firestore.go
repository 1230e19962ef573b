package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/luna-ai/luna/pkg/errkind"
	"github.com/luna-ai/luna/pkg/schemas"
)

const consultationsCollection = "consultations"

// FirestoreStore persists consultation records to Firestore, the backend
// used on Cloud Run deployments.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to Firestore in the given project. Credentials
// come from the ambient service account.
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, errkind.Wrap(err, errkind.Network, errkind.CodeConnectionFailed, "connect to firestore")
	}
	return &FirestoreStore{client: client}, nil
}

// SaveConsultation implements Store.
func (s *FirestoreStore) SaveConsultation(ctx context.Context, rec *schemas.ConsultationRecord) error {
	if rec == nil || rec.ID == "" {
		return errkind.New(errkind.Validation, errkind.CodeMissingRequired, "consultation record needs an id")
	}

	_, err := s.client.Collection(consultationsCollection).Doc(rec.ID).Set(ctx, rec)
	if err != nil {
		return errkind.Wrap(err, errkind.Network, errkind.CodeServiceUnavailable, "write consultation record")
	}
	return nil
}

// ListConsultations implements Store.
func (s *FirestoreStore) ListConsultations(ctx context.Context, userID string, limit int) ([]*schemas.ConsultationRecord, error) {
	limit = normalizeLimit(limit)

	iter := s.client.Collection(consultationsCollection).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var out []*schemas.ConsultationRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errkind.Wrap(err, errkind.Network, errkind.CodeServiceUnavailable, "read consultation records")
		}
		var rec schemas.ConsultationRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, errkind.Wrap(err, errkind.Format, errkind.CodeBadUpstreamFormat, "decode consultation document")
		}
		out = append(out, &rec)
	}
	return out, nil
}

// Close implements Store.
func (s *FirestoreStore) Close() error { return s.client.Close() }

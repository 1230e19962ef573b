package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/config"
	"github.com/luna-ai/luna/pkg/schemas"
)

func record(userID, query string, at time.Time) *schemas.ConsultationRecord {
	return &schemas.ConsultationRecord{
		ID:      uuid.NewString(),
		UserID:  userID,
		Query:   query,
		Niche:   "fitness",
		Quality: "basic",
		Response: &schemas.ConsultationResponse{
			Query:   query,
			Quality: "basic",
		},
		CreatedAt: at,
	}
}

// Both embedded backends honor the same contract; Firestore needs live
// credentials and is covered by deployment smoke tests instead.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "luna.db"))
	require.NoError(t, err)

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestSaveAndList(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)

			for i := 0; i < 3; i++ {
				rec := record("user-1", fmt.Sprintf("query %d", i), base.Add(time.Duration(i)*time.Minute))
				require.NoError(t, s.SaveConsultation(ctx, rec))
			}
			require.NoError(t, s.SaveConsultation(ctx, record("user-2", "other", base)))

			got, err := s.ListConsultations(ctx, "user-1", 10)
			require.NoError(t, err)
			require.Len(t, got, 3)

			// Newest first.
			assert.Equal(t, "query 2", got[0].Query)
			assert.Equal(t, "query 0", got[2].Query)
			assert.Equal(t, "fitness", got[0].Niche)
			require.NotNil(t, got[0].Response)
			assert.Equal(t, "query 2", got[0].Response.Query)
		})
	}
}

func TestListHonorsLimit(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			ctx := context.Background()
			base := time.Now().UTC()

			for i := 0; i < 5; i++ {
				require.NoError(t, s.SaveConsultation(ctx, record("u", "q", base.Add(time.Duration(i)*time.Second))))
			}

			got, err := s.ListConsultations(ctx, "u", 2)
			require.NoError(t, err)
			assert.Len(t, got, 2)
		})
	}
}

func TestListUnknownUser(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			got, err := s.ListConsultations(context.Background(), "nobody", 10)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestSaveRejectsMissingID(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			err := s.SaveConsultation(context.Background(), &schemas.ConsultationRecord{UserID: "u"})
			assert.Error(t, err)
		})
	}
}

func TestNewFromConfigDefaultsToMemory(t *testing.T) {
	s, err := NewFromConfig(context.Background(), &config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &MemoryStore{}, s)
}

func TestNewFromConfigSQLite(t *testing.T) {
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "luna.db")}

	s, err := NewFromConfig(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &SQLiteStore{}, s)
}

package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luna-ai/luna/pkg/errkind"
)

func TestCompetitorSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/competitors", r.URL.Path)
		assert.Equal(t, "fitness", r.URL.Query().Get("niche"))
		assert.Equal(t, "instagram", r.URL.Query().Get("platform"))
		json.NewEncoder(w).Encode(map[string]any{
			"top_competitors": []string{"fit_ana", "coach_ben"},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	snap, err := c.CompetitorSnapshot(context.Background(), "fitness", "instagram")

	require.NoError(t, err)
	assert.Equal(t, []any{"fit_ana", "coach_ben"}, snap["top_competitors"])
}

func TestTrendSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trends", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"trending_formats": []string{"reels"}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	snap, err := c.TrendSnapshot(context.Background(), "fitness", "")

	require.NoError(t, err)
	assert.NotEmpty(t, snap["trending_formats"])
}

func TestSnapshotErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   errkind.Kind
	}{
		{"auth", http.StatusForbidden, errkind.Auth},
		{"rate limit", http.StatusTooManyRequests, errkind.Network},
		{"upstream down", http.StatusServiceUnavailable, errkind.Network},
		{"bad request shape", http.StatusBadRequest, errkind.Format},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			_, err = c.CompetitorSnapshot(context.Background(), "fitness", "instagram")

			require.Error(t, err)
			assert.Equal(t, tt.kind, errkind.KindOf(err))
		})
	}
}

func TestSnapshotMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.TrendSnapshot(context.Background(), "fitness", "instagram")

	require.Error(t, err)
	assert.Equal(t, errkind.Format, errkind.KindOf(err))
}

func TestSnapshotRequiresNiche(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)

	_, err = c.CompetitorSnapshot(context.Background(), "", "instagram")

	require.Error(t, err)
	assert.Equal(t, errkind.Validation, errkind.KindOf(err))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

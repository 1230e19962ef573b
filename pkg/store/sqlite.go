package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/luna-ai/luna/pkg/errkind"
	"github.com/luna-ai/luna/pkg/schemas"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS consultations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	query      TEXT NOT NULL,
	niche      TEXT NOT NULL,
	quality    TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_consultations_user_created
	ON consultations (user_id, created_at DESC);
`

// SQLiteStore persists consultation records to a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "open sqlite database")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "initialize sqlite schema")
	}
	return &SQLiteStore{db: db}, nil
}

// SaveConsultation implements Store.
func (s *SQLiteStore) SaveConsultation(ctx context.Context, rec *schemas.ConsultationRecord) error {
	if rec == nil || rec.ID == "" {
		return errkind.New(errkind.Validation, errkind.CodeMissingRequired, "consultation record needs an id")
	}

	response, err := json.Marshal(rec.Response)
	if err != nil {
		return errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "encode consultation response")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO consultations (id, user_id, query, niche, quality, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Query, rec.Niche, rec.Quality, string(response), rec.CreatedAt.UTC())
	if err != nil {
		return errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "insert consultation record")
	}
	return nil
}

// ListConsultations implements Store.
func (s *SQLiteStore) ListConsultations(ctx context.Context, userID string, limit int) ([]*schemas.ConsultationRecord, error) {
	limit = normalizeLimit(limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, query, niche, quality, response, created_at
		 FROM consultations WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "query consultation records")
	}
	defer rows.Close()

	var out []*schemas.ConsultationRecord
	for rows.Next() {
		var rec schemas.ConsultationRecord
		var response string
		var created time.Time
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &rec.Niche, &rec.Quality, &response, &created); err != nil {
			return nil, errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "scan consultation record")
		}
		rec.CreatedAt = created
		if err := json.Unmarshal([]byte(response), &rec.Response); err != nil {
			return nil, errkind.Wrap(err, errkind.Format, errkind.CodeBadUpstreamFormat, "decode stored consultation response")
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "iterate consultation records")
	}
	return out, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

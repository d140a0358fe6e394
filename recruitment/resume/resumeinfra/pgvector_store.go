package resumeinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/pkg/metrics"
	"github.com/hirelens/hirelens/recruitment/resume"
)

const (
	defaultVectorDimensions = 384
	defaultVectorTimeout    = 30 * time.Second
)

// PgVectorStore keeps embedding points in Postgres with the pgvector
// extension. Scores are cosine similarity in [0, 1]; pgvector's <=> operator
// returns cosine distance, so similarity = 1 - distance.
type PgVectorStore struct {
	db         *sqlx.DB
	dimensions int
	timeout    time.Duration
	metrics    *metrics.Metrics
}

func NewPgVectorStore(db *sqlx.DB, dimensions int, m *metrics.Metrics) *PgVectorStore {
	if dimensions <= 0 {
		dimensions = defaultVectorDimensions
	}
	return &PgVectorStore{
		db:         db,
		dimensions: dimensions,
		timeout:    defaultVectorTimeout,
		metrics:    m,
	}
}

// EnsureSchema creates the extension, table and indexes. The embedding
// column is sized to the configured dimension, so changing models requires
// a migration.
func (s *PgVectorStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS resume_points (
			id         UUID PRIMARY KEY,
			uid        TEXT NOT NULL,
			embedding  vector(%d) NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS resume_points_uid_idx ON resume_points (uid)`,
		`CREATE INDEX IF NOT EXISTS resume_points_embedding_idx
			ON resume_points USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS resume_points_payload_idx ON resume_points USING gin (payload)`,
		`CREATE INDEX IF NOT EXISTS resume_points_email_idx ON resume_points ((payload->>'email'))`,
		`CREATE INDEX IF NOT EXISTS resume_points_name_idx ON resume_points ((payload->>'name'))`,
		`CREATE INDEX IF NOT EXISTS resume_points_source_idx ON resume_points ((payload->>'source'))`,
		`CREATE INDEX IF NOT EXISTS resume_points_role_idx ON resume_points ((payload->>'role'))`,
		`CREATE INDEX IF NOT EXISTS resume_points_location_idx ON resume_points ((payload->>'location'))`,
		`CREATE INDEX IF NOT EXISTS resume_points_years_idx ON resume_points (((payload->>'years_experience')::int))`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
				WithDetail("statement", firstLine(stmt))
		}
	}
	return nil
}

// StoreVectors replaces every point for the resume in one transaction.
// Points whose vector does not match the configured dimension are dropped
// with a warning; if nothing survives a non-empty input, the write is
// abandoned so stale points are not lost for nothing.
func (s *PgVectorStore) StoreVectors(ctx context.Context, uid kernel.ResumeUID, points []resume.EmbeddingPoint) ([]kernel.PointID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM resume_points WHERE uid = $1`, uid.String()); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("uid", uid.String())
	}

	const insert = `
		INSERT INTO resume_points (id, uid, embedding, payload)
		VALUES ($1, $2, $3, $4)`

	ids := make([]kernel.PointID, 0, len(points))
	for _, point := range points {
		if len(point.Vector) != s.dimensions {
			logx.Warnw("dropping embedding point with wrong dimension",
				"uid", uid.String(),
				"source", string(point.Payload.Source),
				"got", len(point.Vector),
				"want", s.dimensions,
			)
			s.metrics.DropCorruptedPoint()
			continue
		}
		payload, err := json.Marshal(point.Payload)
		if err != nil {
			return nil, resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
		}
		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx, insert, id, uid.String(), pgvector.NewVector(point.Vector), payload); err != nil {
			return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
				WithDetail("uid", uid.String())
		}
		ids = append(ids, kernel.NewPointID(id))
	}

	if len(points) > 0 && len(ids) == 0 {
		return nil, resume.ErrVectorMismatch().
			WithDetail("uid", uid.String()).
			WithDetail("points", len(points))
	}

	if err := tx.Commit(); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}
	return ids, nil
}

type pointRow struct {
	ID      string  `db:"id"`
	UID     string  `db:"uid"`
	Payload []byte  `db:"payload"`
	Score   float64 `db:"score"`
}

// Search runs cosine similarity over all points, optionally narrowed by the
// payload filter, and returns hits at or above minScore, best first.
func (s *PgVectorStore) Search(ctx context.Context, query []float32, limit int, minScore float64, filter *resume.PointFilter) ([]resume.VectorHit, error) {
	if len(query) != s.dimensions {
		return nil, resume.ErrVectorMismatch().
			WithDetail("got", len(query)).
			WithDetail("want", s.dimensions)
	}
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []any{pgvector.NewVector(query)}
	where := []string{}

	// Distance cutoff expresses minScore without recomputing similarity
	// per row.
	if minScore > 0 {
		args = append(args, 1-minScore)
		where = append(where, fmt.Sprintf("(embedding <=> $1) <= $%d", len(args)))
	}
	if filter != nil {
		if filter.UID != "" {
			args = append(args, filter.UID)
			where = append(where, fmt.Sprintf("uid = $%d", len(args)))
		}
		if filter.Email != "" {
			args = append(args, resume.NormalizeEmail(filter.Email))
			where = append(where, fmt.Sprintf("payload->>'email' = $%d", len(args)))
		}
		if len(filter.Skills) > 0 {
			args = append(args, pq.Array(filter.Skills))
			where = append(where, fmt.Sprintf("payload->'skills' ?& $%d::text[]", len(args)))
		}
		if len(filter.Companies) > 0 {
			args = append(args, pq.Array(filter.Companies))
			where = append(where, fmt.Sprintf("payload->'companies' ?| $%d::text[]", len(args)))
		}
		if filter.Role != "" {
			args = append(args, "%"+filter.Role+"%")
			where = append(where, fmt.Sprintf("payload->>'role' ILIKE $%d", len(args)))
		}
		if len(filter.Locations) > 0 {
			args = append(args, pq.Array(filter.Locations))
			where = append(where, fmt.Sprintf(
				`EXISTS (SELECT 1 FROM unnest($%d::text[]) AS loc
					WHERE payload->>'location' ILIKE '%%' || loc || '%%')`, len(args)))
		}
		if filter.MinYears != nil {
			args = append(args, *filter.MinYears)
			where = append(where, fmt.Sprintf("(payload->>'years_experience')::int >= $%d", len(args)))
		}
	}

	sql := `
		SELECT id, uid, payload, 1 - (embedding <=> $1) AS score
		FROM resume_points`
	if len(where) > 0 {
		sql += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	sql += fmt.Sprintf("\n\t\tORDER BY embedding <=> $1\n\t\tLIMIT $%d", len(args))

	var rows []pointRow
	if err := s.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}

	hits := make([]resume.VectorHit, 0, len(rows))
	for _, row := range rows {
		hit := resume.VectorHit{
			ID:    kernel.NewPointID(row.ID),
			UID:   kernel.NewResumeUID(row.UID),
			Score: row.Score,
		}
		if err := json.Unmarshal(row.Payload, &hit.Payload); err != nil {
			logx.Warnw("skipping point with unreadable payload", "point_id", row.ID, "error", err)
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteVectors drops all points for a resume and returns how many were
// removed. Deleting a resume with no points is not an error.
func (s *PgVectorStore) DeleteVectors(ctx context.Context, uid kernel.ResumeUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM resume_points WHERE uid = $1`, uid.String())
	if err != nil {
		return 0, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("uid", uid.String())
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}
	return int(removed), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

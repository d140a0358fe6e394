package resumeinfra

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
)

const defaultGraphTimeout = 60 * time.Second

// Neo4jStore persists resumes as a property graph. Each resume owns its
// section nodes exclusively; Skill, CompanyInfo, InstitutionInfo and
// Language nodes are shared across resumes and merged by unique name.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewNeo4jStore wraps an already connected driver. The database name may be
// empty to use the server default.
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
		timeout:  defaultGraphTimeout,
	}
}

// EnsureSchema creates the uniqueness constraints and indexes. Schema
// commands need auto-commit transactions, so each statement runs on its own.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
				WithDetail("statement", stmt)
		}
	}
	return nil
}

// UpsertResume writes the full resume graph. An existing resume with the
// same email (or, failing that, the same uid) is replaced: its exclusive
// subtree is deleted and rebuilt while its uid and created_at survive. The
// passed resume is updated in place with the final uid and timestamps.
// Returns true when a brand-new resume was created.
func (s *Neo4jStore) UpsertResume(ctx context.Context, r *resume.Resume) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existingUID, existingCreatedAt, found, err := findExisting(ctx, tx, r)
		if err != nil {
			return false, err
		}
		if found {
			r.UID = existingUID
			if !existingCreatedAt.IsZero() {
				r.CreatedAt = existingCreatedAt
			}
			if _, err := tx.Run(ctx, cascadeDeleteQuery, map[string]any{"uid": existingUID.String()}); err != nil {
				return false, err
			}
		}
		if r.UID.IsEmpty() {
			r.UID = kernel.NewResumeUID(uuid.NewString())
		}
		now := time.Now().UTC()
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}

		res, err := tx.Run(ctx, insertResumeQuery, upsertParams(r))
		if err != nil {
			return false, err
		}
		if _, err := res.Single(ctx); err != nil {
			return false, err
		}
		return !found, nil
	})
	if err != nil {
		return false, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("uid", r.UID.String())
	}
	return created.(bool), nil
}

func findExisting(ctx context.Context, tx neo4j.ManagedTransaction, r *resume.Resume) (kernel.ResumeUID, time.Time, bool, error) {
	res, err := tx.Run(ctx, findExistingQuery, map[string]any{
		"email": r.Email(),
		"uid":   r.UID.String(),
	})
	if err != nil {
		return "", time.Time{}, false, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return "", time.Time{}, false, err
	}
	if len(records) == 0 {
		return "", time.Time{}, false, nil
	}
	uid, _ := records[0].Get("uid")
	createdAt, _ := records[0].Get("created_at")
	return kernel.ResumeUID(asString(uid)), msToTime(createdAt), true, nil
}

// GetResume loads one resume with all sections.
func (s *Neo4jStore) GetResume(ctx context.Context, uid kernel.ResumeUID) (*resume.Resume, error) {
	rows, err := s.readResumes(ctx, getResumeQuery, map[string]any{"uid": uid.String()})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, resume.ErrResumeNotFound().WithDetail("uid", uid.String())
	}
	return rows[0], nil
}

// GetResumesByIds loads the resumes that exist; missing uids are skipped.
func (s *Neo4jStore) GetResumesByIds(ctx context.Context, uids []kernel.ResumeUID) ([]*resume.Resume, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	params := make([]any, len(uids))
	for i, uid := range uids {
		params[i] = uid.String()
	}
	return s.readResumes(ctx, getResumesByIdsQuery, map[string]any{"uids": params})
}

// GetResumeByEmail resolves a resume by its normalized contact email.
func (s *Neo4jStore) GetResumeByEmail(ctx context.Context, email string) (*resume.Resume, error) {
	rows, err := s.readResumes(ctx, getResumeByEmailQuery, map[string]any{
		"email": resume.NormalizeEmail(email),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, resume.ErrResumeNotFound().WithDetail("email", email)
	}
	return rows[0], nil
}

// ListResumes pages through resumes, newest first.
func (s *Neo4jStore) ListResumes(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[resume.Resume], error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := pagination.Normalized()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, listResumesQuery, map[string]any{
			"skip":  opts.Offset(),
			"limit": opts.PageSize,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]resume.Resume, 0, len(records))
		for _, record := range records {
			value, _ := record.Get("resume")
			r, err := resumeFromProjection(value)
			if err != nil {
				return nil, err
			}
			items = append(items, *r)
		}

		countRes, err := tx.Run(ctx, countResumesQuery, nil)
		if err != nil {
			return nil, err
		}
		countRecord, err := countRes.Single(ctx)
		if err != nil {
			return nil, err
		}
		total, _ := countRecord.Get("total")
		return kernel.NewPaginated(items, opts.Page, opts.PageSize, int(asInt64(total))), nil
	})
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}
	return out.(*kernel.Paginated[resume.Resume]), nil
}

// DeleteResume removes just the resume node and its relationships. Section
// nodes survive; use DeleteResumeCascade to drop the whole subtree.
func (s *Neo4jStore) DeleteResume(ctx context.Context, uid kernel.ResumeUID) error {
	return s.deleteByUID(ctx, deleteResumeQuery, uid)
}

// DeleteResumeCascade removes the resume and every exclusively owned node.
// Shared leaves stay in place for other resumes pointing at them.
func (s *Neo4jStore) DeleteResumeCascade(ctx context.Context, uid kernel.ResumeUID) error {
	return s.deleteByUID(ctx, cascadeDeleteQuery, uid)
}

func (s *Neo4jStore) deleteByUID(ctx context.Context, query string, uid kernel.ResumeUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uid": uid.String()})
		if err != nil {
			return false, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return false, err
		}
		return summary.Counters().NodesDeleted() > 0, nil
	})
	if err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("uid", uid.String())
	}
	if !deleted.(bool) {
		return resume.ErrResumeNotFound().WithDetail("uid", uid.String())
	}
	return nil
}

func (s *Neo4jStore) readResumes(ctx context.Context, query string, params map[string]any) ([]*resume.Resume, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		resumes := make([]*resume.Resume, 0, len(records))
		for _, record := range records {
			value, _ := record.Get("resume")
			r, err := resumeFromProjection(value)
			if err != nil {
				return nil, err
			}
			resumes = append(resumes, r)
		}
		return resumes, nil
	})
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}
	return out.([]*resume.Resume), nil
}

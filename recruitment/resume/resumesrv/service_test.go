package resumesrv

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/internal/docparse"
	"github.com/hirelens/hirelens/pkg/fsx"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// ============================================================================
// Collaborator mocks
// ============================================================================

type mockJobStore struct {
	created []*resume.Job
	patches []resume.JobPatch
	deleted []kernel.JobID

	createFn func(ctx context.Context, job *resume.Job) error
	getFn    func(ctx context.Context, jobID kernel.JobID) (*resume.Job, error)
	updateFn func(ctx context.Context, jobID kernel.JobID, patch resume.JobPatch) (*resume.Job, error)
	deleteFn func(ctx context.Context, jobID kernel.JobID) error
	listFn   func(ctx context.Context, status resume.JobStatus, p kernel.PaginationOptions) (*kernel.Paginated[resume.Job], error)
	countFn  func(ctx context.Context) (map[resume.JobStatus]int64, error)
}

func (m *mockJobStore) CreateJob(ctx context.Context, job *resume.Job) error {
	m.created = append(m.created, job)
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return nil
}

func (m *mockJobStore) GetJob(ctx context.Context, jobID kernel.JobID) (*resume.Job, error) {
	if m.getFn != nil {
		return m.getFn(ctx, jobID)
	}
	return nil, resume.ErrJobNotFound()
}

func (m *mockJobStore) UpdateJob(ctx context.Context, jobID kernel.JobID, patch resume.JobPatch) (*resume.Job, error) {
	m.patches = append(m.patches, patch)
	if m.updateFn != nil {
		return m.updateFn(ctx, jobID, patch)
	}
	return &resume.Job{JobID: jobID}, nil
}

func (m *mockJobStore) DeleteJob(ctx context.Context, jobID kernel.JobID) error {
	m.deleted = append(m.deleted, jobID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, jobID)
	}
	return nil
}

func (m *mockJobStore) ListJobs(ctx context.Context, status resume.JobStatus, p kernel.PaginationOptions) (*kernel.Paginated[resume.Job], error) {
	if m.listFn != nil {
		return m.listFn(ctx, status, p)
	}
	return &kernel.Paginated[resume.Job]{}, nil
}

func (m *mockJobStore) CountJobsByStatus(ctx context.Context) (map[resume.JobStatus]int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return map[resume.JobStatus]int64{}, nil
}

type mockQueue struct {
	enqueued     []resume.TaskEnvelope
	heartbeats   []kernel.TaskID
	acked        []kernel.TaskID
	retried      []resume.TaskEnvelope
	deadLettered []resume.TaskEnvelope

	enqueueFn func(ctx context.Context, task resume.TaskEnvelope) error
	retryFn   func(ctx context.Context, task resume.TaskEnvelope) (time.Time, error)
	statsFn   func(ctx context.Context) (*resume.QueueStats, error)
}

func (m *mockQueue) Enqueue(ctx context.Context, task resume.TaskEnvelope) error {
	m.enqueued = append(m.enqueued, task)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, task)
	}
	return nil
}

func (m *mockQueue) Dequeue(ctx context.Context, timeout time.Duration) (*resume.TaskEnvelope, error) {
	return nil, nil
}

func (m *mockQueue) Heartbeat(ctx context.Context, taskID kernel.TaskID) error {
	m.heartbeats = append(m.heartbeats, taskID)
	return nil
}

func (m *mockQueue) Ack(ctx context.Context, taskID kernel.TaskID) error {
	m.acked = append(m.acked, taskID)
	return nil
}

func (m *mockQueue) ScheduleRetry(ctx context.Context, task resume.TaskEnvelope) (time.Time, error) {
	m.retried = append(m.retried, task)
	if m.retryFn != nil {
		return m.retryFn(ctx, task)
	}
	return time.Now().Add(4 * time.Second), nil
}

func (m *mockQueue) DeadLetter(ctx context.Context, task resume.TaskEnvelope) error {
	m.deadLettered = append(m.deadLettered, task)
	return nil
}

func (m *mockQueue) ProcessRetries(ctx context.Context) (int, error) { return 0, nil }
func (m *mockQueue) CleanupExpired(ctx context.Context) (int, error) { return 0, nil }
func (m *mockQueue) Purge(ctx context.Context) error                 { return nil }

func (m *mockQueue) Stats(ctx context.Context) (*resume.QueueStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &resume.QueueStats{}, nil
}

type mockGraph struct {
	upserted []*resume.Resume

	upsertFn        func(ctx context.Context, r *resume.Resume) (bool, error)
	getFn           func(ctx context.Context, uid kernel.ResumeUID) (*resume.Resume, error)
	getByEmailFn    func(ctx context.Context, email string) (*resume.Resume, error)
	listFn          func(ctx context.Context, p kernel.PaginationOptions) (*kernel.Paginated[resume.Resume], error)
	deleteCascadeFn func(ctx context.Context, uid kernel.ResumeUID) error
}

func (m *mockGraph) UpsertResume(ctx context.Context, r *resume.Resume) (bool, error) {
	m.upserted = append(m.upserted, r)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, r)
	}
	return true, nil
}

func (m *mockGraph) GetResume(ctx context.Context, uid kernel.ResumeUID) (*resume.Resume, error) {
	if m.getFn != nil {
		return m.getFn(ctx, uid)
	}
	return nil, resume.ErrResumeNotFound()
}

func (m *mockGraph) GetResumesByIds(ctx context.Context, uids []kernel.ResumeUID) ([]*resume.Resume, error) {
	return nil, nil
}

func (m *mockGraph) GetResumeByEmail(ctx context.Context, email string) (*resume.Resume, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, resume.ErrResumeNotFound()
}

func (m *mockGraph) ListResumes(ctx context.Context, p kernel.PaginationOptions) (*kernel.Paginated[resume.Resume], error) {
	if m.listFn != nil {
		return m.listFn(ctx, p)
	}
	return &kernel.Paginated[resume.Resume]{}, nil
}

func (m *mockGraph) DeleteResume(ctx context.Context, uid kernel.ResumeUID) error { return nil }

func (m *mockGraph) DeleteResumeCascade(ctx context.Context, uid kernel.ResumeUID) error {
	if m.deleteCascadeFn != nil {
		return m.deleteCascadeFn(ctx, uid)
	}
	return nil
}

type mockVectors struct {
	uid     kernel.ResumeUID
	points  []resume.EmbeddingPoint
	deleted []kernel.ResumeUID

	storeFn  func(ctx context.Context, uid kernel.ResumeUID, points []resume.EmbeddingPoint) ([]kernel.PointID, error)
	deleteFn func(ctx context.Context, uid kernel.ResumeUID) (int, error)
}

func (m *mockVectors) StoreVectors(ctx context.Context, uid kernel.ResumeUID, points []resume.EmbeddingPoint) ([]kernel.PointID, error) {
	m.uid = uid
	m.points = points
	if m.storeFn != nil {
		return m.storeFn(ctx, uid, points)
	}
	ids := make([]kernel.PointID, len(points))
	for i := range ids {
		ids[i] = kernel.PointID("p" + string(rune('0'+i)))
	}
	return ids, nil
}

func (m *mockVectors) Search(ctx context.Context, query []float32, limit int, minScore float64, filter *resume.PointFilter) ([]resume.VectorHit, error) {
	return nil, nil
}

func (m *mockVectors) DeleteVectors(ctx context.Context, uid kernel.ResumeUID) (int, error) {
	m.deleted = append(m.deleted, uid)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, uid)
	}
	return len(m.points), nil
}

type mockFiles struct {
	files   map[string][]byte
	deleted []string

	readFn func(ctx context.Context, path string) ([]byte, error)
}

func newMockFiles() *mockFiles {
	return &mockFiles{files: map[string][]byte{}}
}

func (m *mockFiles) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if m.readFn != nil {
		return m.readFn(ctx, p)
	}
	data, ok := m.files[p]
	if !ok {
		return nil, fsx.ErrNotFound
	}
	return data, nil
}

func (m *mockFiles) WriteFile(ctx context.Context, p string, data []byte) error {
	m.files[p] = data
	return nil
}

func (m *mockFiles) WriteFileStream(ctx context.Context, p string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return m.WriteFile(ctx, p, data)
}

func (m *mockFiles) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, error) {
	data, err := m.ReadFile(ctx, p)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockFiles) DeleteFile(ctx context.Context, p string) error {
	m.deleted = append(m.deleted, p)
	delete(m.files, p)
	return nil
}

func (m *mockFiles) Join(parts ...string) string { return path.Join(parts...) }

type mockOCR struct {
	extractPDFFn   func(ctx context.Context, data []byte) (*docparse.Document, error)
	extractImageFn func(ctx context.Context, fileType docparse.FileType, data []byte) (*docparse.Document, error)
}

func (m *mockOCR) ExtractPDF(ctx context.Context, data []byte) (*docparse.Document, error) {
	if m.extractPDFFn != nil {
		return m.extractPDFFn(ctx, data)
	}
	return nil, errors.New("ocr not stubbed")
}

func (m *mockOCR) ExtractImage(ctx context.Context, fileType docparse.FileType, data []byte) (*docparse.Document, error) {
	if m.extractImageFn != nil {
		return m.extractImageFn(ctx, fileType, data)
	}
	return nil, errors.New("ocr not stubbed")
}

type mockStructurer struct {
	fn func(ctx context.Context, doc *docparse.Document) (*resume.Resume, error)
}

func (m *mockStructurer) Structure(ctx context.Context, doc *docparse.Document) (*resume.Resume, error) {
	if m.fn != nil {
		return m.fn(ctx, doc)
	}
	return nil, errors.New("structurer not stubbed")
}

type mockReviewer struct {
	fn func(ctx context.Context, r *resume.Resume) (*resume.ReviewResult, error)
}

func (m *mockReviewer) Review(ctx context.Context, r *resume.Resume) (*resume.ReviewResult, error) {
	if m.fn != nil {
		return m.fn(ctx, r)
	}
	return nil, errors.New("reviewer not stubbed")
}

type mockEncoder struct {
	dims int
	fn   func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.fn != nil {
		return m.fn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, m.dims)
	}
	return out, nil
}

func (m *mockEncoder) Dimensions() int { return m.dims }

// ============================================================================
// Harness
// ============================================================================

type serviceMocks struct {
	jobs       *mockJobStore
	queue      *mockQueue
	graph      *mockGraph
	vectors    *mockVectors
	files      *mockFiles
	ocr        *mockOCR
	structurer *mockStructurer
	reviewer   *mockReviewer
	encoder    *mockEncoder
}

func newTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		jobs:       &mockJobStore{},
		queue:      &mockQueue{},
		graph:      &mockGraph{},
		vectors:    &mockVectors{},
		files:      newMockFiles(),
		ocr:        &mockOCR{},
		structurer: &mockStructurer{},
		reviewer:   &mockReviewer{},
		encoder:    &mockEncoder{dims: 4},
	}
	svc := NewService(Dependencies{
		Jobs:       m.jobs,
		Queue:      m.queue,
		Graph:      m.graph,
		Vectors:    m.vectors,
		Files:      m.files,
		OCR:        m.ocr,
		Structurer: m.structurer,
		Reviewer:   m.reviewer,
		Encoder:    m.encoder,
	})
	return svc, m
}

func pdfBody() []byte { return []byte("%PDF-1.4 resume body") }

// ============================================================================
// Upload
// ============================================================================

func TestUploadResumeAcceptsValidPDF(t *testing.T) {
	svc, m := newTestService(t)

	resp, err := svc.UploadResume(context.Background(), resume.UploadResumeRequest{
		FileName:       "resume.PDF",
		Data:           pdfBody(),
		GenerateReview: true,
	})

	require.NoError(t, err)
	assert.False(t, resp.JobID.IsEmpty())
	assert.Equal(t, resume.JobStatusPending, resp.Status)
	assert.Equal(t, "/api/v1/jobs/"+resp.JobID.String(), resp.StatusURL)

	require.Len(t, m.jobs.created, 1)
	job := m.jobs.created[0]
	assert.Equal(t, resp.JobID, job.JobID)
	assert.Equal(t, resume.JobStatusPending, job.Status)
	assert.True(t, job.Options.GenerateReview)

	require.Len(t, m.queue.enqueued, 1)
	task := m.queue.enqueued[0]
	assert.Equal(t, resp.JobID, task.JobID)
	assert.False(t, task.TaskID.IsEmpty())
	assert.True(t, task.Options.GenerateReview)
	// Extension is lowercased on the stored path.
	assert.Equal(t, "resumes/"+resp.JobID.String()+".pdf", task.FilePath)

	stored, rerr := m.files.ReadFile(context.Background(), task.FilePath)
	require.NoError(t, rerr)
	assert.Equal(t, pdfBody(), stored)
}

func TestUploadResumeRejectsDangerousName(t *testing.T) {
	svc, m := newTestService(t)

	_, err := svc.UploadResume(context.Background(), resume.UploadResumeRequest{
		FileName: "../../etc/passwd.pdf",
		Data:     pdfBody(),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, resume.ErrDangerousFile())
	assert.Empty(t, m.files.files)
	assert.Empty(t, m.jobs.created)
	assert.Empty(t, m.queue.enqueued)
}

func TestUploadResumeRejectsOversizedFile(t *testing.T) {
	svc, _ := newTestService(t)
	svc.limits = docparse.Limits{MaxPDFBytes: 8, MaxImageBytes: 8}

	_, err := svc.UploadResume(context.Background(), resume.UploadResumeRequest{
		FileName: "resume.pdf",
		Data:     pdfBody(),
	})

	assert.ErrorIs(t, err, resume.ErrFileTooLarge())
}

func TestUploadResumeRollsBackOnEnqueueFailure(t *testing.T) {
	svc, m := newTestService(t)
	m.queue.enqueueFn = func(context.Context, resume.TaskEnvelope) error {
		return resume.ErrQueueUnavailable()
	}

	_, err := svc.UploadResume(context.Background(), resume.UploadResumeRequest{
		FileName: "resume.pdf",
		Data:     pdfBody(),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, resume.ErrQueueUnavailable())
	// Both the pending job and the stored file are rolled back.
	require.Len(t, m.jobs.created, 1)
	assert.Equal(t, []kernel.JobID{m.jobs.created[0].JobID}, m.jobs.deleted)
	assert.Len(t, m.files.deleted, 1)
	assert.Empty(t, m.files.files)
}

func TestUploadResumeCleansFileWhenJobCreateFails(t *testing.T) {
	svc, m := newTestService(t)
	m.jobs.createFn = func(context.Context, *resume.Job) error {
		return resume.ErrStoreUnavailable()
	}

	_, err := svc.UploadResume(context.Background(), resume.UploadResumeRequest{
		FileName: "resume.pdf",
		Data:     pdfBody(),
	})

	require.Error(t, err)
	assert.Len(t, m.files.deleted, 1)
	assert.Empty(t, m.jobs.deleted)
	assert.Empty(t, m.queue.enqueued)
}

// ============================================================================
// Job operations
// ============================================================================

func TestRetryJobReenqueuesFailedJob(t *testing.T) {
	svc, m := newTestService(t)
	m.jobs.getFn = func(_ context.Context, jobID kernel.JobID) (*resume.Job, error) {
		return &resume.Job{
			JobID:    jobID,
			Status:   resume.JobStatusFailed,
			FilePath: "resumes/old.pdf",
			Options:  resume.JobOptions{GenerateReview: true},
			Error:    "boom",
		}, nil
	}

	resp, err := svc.RetryJob(context.Background(), kernel.JobID("job-1"))

	require.NoError(t, err)
	assert.Equal(t, kernel.JobID("job-1"), resp.JobID)

	require.Len(t, m.queue.enqueued, 1)
	task := m.queue.enqueued[0]
	assert.Equal(t, kernel.JobID("job-1"), task.JobID)
	assert.Equal(t, "resumes/old.pdf", task.FilePath)
	assert.True(t, task.Options.GenerateReview)
	assert.Zero(t, task.Attempts)

	require.Len(t, m.jobs.patches, 1)
	patch := m.jobs.patches[0]
	require.NotNil(t, patch.Status)
	assert.Equal(t, resume.JobStatusPending, *patch.Status)
	require.NotNil(t, patch.Error)
	assert.Empty(t, *patch.Error)
}

func TestRetryJobRequiresFailedStatus(t *testing.T) {
	svc, m := newTestService(t)
	m.jobs.getFn = func(_ context.Context, jobID kernel.JobID) (*resume.Job, error) {
		return &resume.Job{JobID: jobID, Status: resume.JobStatusCompleted}, nil
	}

	_, err := svc.RetryJob(context.Background(), kernel.JobID("job-1"))

	assert.ErrorIs(t, err, resume.ErrJobNotFailed())
	assert.Empty(t, m.queue.enqueued)
	assert.Empty(t, m.jobs.patches)
}

func TestDeleteJobRejectsNonTerminal(t *testing.T) {
	svc, m := newTestService(t)
	m.jobs.getFn = func(_ context.Context, jobID kernel.JobID) (*resume.Job, error) {
		return &resume.Job{JobID: jobID, Status: resume.JobStatusProcessing}, nil
	}

	err := svc.DeleteJob(context.Background(), kernel.JobID("job-1"))

	assert.ErrorIs(t, err, resume.ErrJobNotTerminal())
	assert.Empty(t, m.jobs.deleted)
	assert.Empty(t, m.files.deleted)
}

func TestDeleteJobRemovesRecordAndFile(t *testing.T) {
	svc, m := newTestService(t)
	m.files.files["resumes/job-1.pdf"] = pdfBody()
	m.jobs.getFn = func(_ context.Context, jobID kernel.JobID) (*resume.Job, error) {
		return &resume.Job{JobID: jobID, Status: resume.JobStatusCompleted, FilePath: "resumes/job-1.pdf"}, nil
	}

	err := svc.DeleteJob(context.Background(), kernel.JobID("job-1"))

	require.NoError(t, err)
	assert.Equal(t, []kernel.JobID{"job-1"}, m.jobs.deleted)
	assert.Equal(t, []string{"resumes/job-1.pdf"}, m.files.deleted)
}

func TestGetJobStats(t *testing.T) {
	svc, m := newTestService(t)
	m.jobs.countFn = func(context.Context) (map[resume.JobStatus]int64, error) {
		return map[resume.JobStatus]int64{
			resume.JobStatusPending:    2,
			resume.JobStatusProcessing: 1,
			resume.JobStatusCompleted:  5,
			resume.JobStatusFailed:     2,
		}, nil
	}
	m.queue.statsFn = func(context.Context) (*resume.QueueStats, error) {
		return &resume.QueueStats{Ready: 3, Retries: 1, InFlight: 1}, nil
	}

	stats, err := svc.GetJobStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalJobs)
	assert.Equal(t, 2, stats.PendingJobs)
	assert.Equal(t, 1, stats.ProcessingJobs)
	assert.Equal(t, 5, stats.CompletedJobs)
	assert.Equal(t, 2, stats.FailedJobs)
	assert.Equal(t, resume.QueueStats{Ready: 3, Retries: 1, InFlight: 1}, stats.Queue)
}

// ============================================================================
// Resume read & delete
// ============================================================================

func TestDeleteResumeIsIdempotent(t *testing.T) {
	svc, m := newTestService(t)
	m.graph.deleteCascadeFn = func(context.Context, kernel.ResumeUID) error {
		return resume.ErrResumeNotFound()
	}

	resp, err := svc.DeleteResume(context.Background(), kernel.ResumeUID("uid-1"))

	require.NoError(t, err)
	assert.False(t, resp.Deleted)
	assert.True(t, resp.Cascade)
	// Vector cleanup still runs so no orphaned points survive.
	assert.Equal(t, []kernel.ResumeUID{"uid-1"}, m.vectors.deleted)
}

func TestDeleteResumeReportsVectorCleanupFailure(t *testing.T) {
	svc, m := newTestService(t)
	m.vectors.deleteFn = func(context.Context, kernel.ResumeUID) (int, error) {
		return 0, errors.New("pgvector down")
	}

	_, err := svc.DeleteResume(context.Background(), kernel.ResumeUID("uid-1"))

	require.Error(t, err)
}

package resumeinfra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/pkg/errx"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
)

func newTestJobStore(t *testing.T, cfg RedisJobStoreConfig) (*RedisJobStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisJobStore(client, cfg), mr, client
}

func testJob(id string, status resume.JobStatus, createdAt time.Time) *resume.Job {
	return &resume.Job{
		JobID:     kernel.NewJobID("job-" + id),
		Status:    status,
		FilePath:  "uploads/" + id + ".pdf",
		Options:   resume.JobOptions{GenerateReview: true},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestJobStoreCreateGetRoundtrip(t *testing.T) {
	store, mr, _ := newTestJobStore(t, RedisJobStoreConfig{Retention: time.Hour})
	ctx := context.Background()

	created := time.Now().UTC()
	job := testJob("1", resume.JobStatusPending, created)
	require.NoError(t, store.CreateJob(ctx, job))

	got, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)

	assert.Equal(t, job.JobID, got.JobID)
	assert.Equal(t, resume.JobStatusPending, got.Status)
	assert.Equal(t, job.FilePath, got.FilePath)
	assert.True(t, got.Options.GenerateReview)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Nil(t, got.Result)

	assert.Equal(t, time.Hour, mr.TTL(jobKey(job.JobID)), "record must expire with the retention window")
}

func TestJobStoreGetMissing(t *testing.T) {
	store, _, _ := newTestJobStore(t, RedisJobStoreConfig{})

	_, err := store.GetJob(context.Background(), kernel.NewJobID("nope"))
	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
}

func TestJobStoreUpdatePatch(t *testing.T) {
	store, mr, _ := newTestJobStore(t, RedisJobStoreConfig{Retention: time.Hour})
	ctx := context.Background()

	created := time.Now().UTC().Add(-time.Minute)
	job := testJob("2", resume.JobStatusPending, created)
	require.NoError(t, store.CreateJob(ctx, job))

	status := resume.JobStatusCompleted
	resultURL := "/api/v1/resumes/abc"
	result := &resume.JobResult{Metadata: resume.ResultMetadata{EmbeddingCount: 7}}
	updated, err := store.UpdateJob(ctx, job.JobID, resume.JobPatch{
		Status:    &status,
		Result:    result,
		ResultURL: &resultURL,
	})
	require.NoError(t, err)

	assert.Equal(t, resume.JobStatusCompleted, updated.Status)
	assert.Equal(t, resultURL, updated.ResultURL)
	require.NotNil(t, updated.Result)
	assert.Equal(t, 7, updated.Result.Metadata.EmbeddingCount)
	assert.True(t, updated.UpdatedAt.After(created), "update must bump updated_at")
	assert.True(t, updated.CreatedAt.Equal(created), "created_at never changes")

	// Untouched fields survive a later partial patch.
	errMsg := "stored file is gone"
	again, err := store.UpdateJob(ctx, job.JobID, resume.JobPatch{Error: &errMsg})
	require.NoError(t, err)
	assert.Equal(t, resume.JobStatusCompleted, again.Status)
	assert.Equal(t, errMsg, again.Error)
	require.NotNil(t, again.Result)

	assert.Equal(t, time.Hour, mr.TTL(jobKey(job.JobID)), "every write refreshes the TTL")
}

func TestJobStoreUpdateMissing(t *testing.T) {
	store, _, _ := newTestJobStore(t, RedisJobStoreConfig{})

	status := resume.JobStatusFailed
	_, err := store.UpdateJob(context.Background(), kernel.NewJobID("nope"), resume.JobPatch{Status: &status})
	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
}

func TestJobStoreDelete(t *testing.T) {
	store, _, client := newTestJobStore(t, RedisJobStoreConfig{})
	ctx := context.Background()

	job := testJob("3", resume.JobStatusPending, time.Now().UTC())
	require.NoError(t, store.CreateJob(ctx, job))

	require.NoError(t, store.DeleteJob(ctx, job.JobID))

	_, err := store.GetJob(ctx, job.JobID)
	assert.True(t, errx.IsType(err, errx.TypeNotFound))

	indexed, err := client.ZCard(ctx, jobsIndexKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), indexed)

	// Deleting again is a no-op.
	require.NoError(t, store.DeleteJob(ctx, job.JobID))
}

func TestJobStoreListNewestFirst(t *testing.T) {
	store, _, _ := newTestJobStore(t, RedisJobStoreConfig{})
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.CreateJob(ctx, testJob("old", resume.JobStatusCompleted, base)))
	require.NoError(t, store.CreateJob(ctx, testJob("mid", resume.JobStatusPending, base.Add(time.Minute))))
	require.NoError(t, store.CreateJob(ctx, testJob("new", resume.JobStatusPending, base.Add(2*time.Minute))))

	page, err := store.ListJobs(ctx, "", kernel.PaginationOptions{Page: 1, PageSize: 2})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, kernel.NewJobID("job-new"), page.Items[0].JobID)
	assert.Equal(t, kernel.NewJobID("job-mid"), page.Items[1].JobID)
	assert.Equal(t, 3, page.Page.Total)
	assert.Equal(t, 2, page.Page.Pages)

	second, err := store.ListJobs(ctx, "", kernel.PaginationOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, kernel.NewJobID("job-old"), second.Items[0].JobID)
}

func TestJobStoreListFiltersByStatus(t *testing.T) {
	store, _, _ := newTestJobStore(t, RedisJobStoreConfig{})
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.CreateJob(ctx, testJob("p1", resume.JobStatusPending, base)))
	require.NoError(t, store.CreateJob(ctx, testJob("c1", resume.JobStatusCompleted, base.Add(time.Minute))))
	require.NoError(t, store.CreateJob(ctx, testJob("p2", resume.JobStatusPending, base.Add(2*time.Minute))))

	page, err := store.ListJobs(ctx, resume.JobStatusPending, kernel.PaginationOptions{Page: 1, PageSize: 10})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page.Total)
	for _, job := range page.Items {
		assert.Equal(t, resume.JobStatusPending, job.Status)
	}
}

func TestJobStoreListPrunesExpiredEntries(t *testing.T) {
	store, _, client := newTestJobStore(t, RedisJobStoreConfig{})
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	keep := testJob("keep", resume.JobStatusPending, base)
	gone := testJob("gone", resume.JobStatusPending, base.Add(time.Minute))
	require.NoError(t, store.CreateJob(ctx, keep))
	require.NoError(t, store.CreateJob(ctx, gone))

	// Simulate TTL expiry of one hash; its index entry becomes stale.
	require.NoError(t, client.Del(ctx, jobKey(gone.JobID)).Err())

	page, err := store.ListJobs(ctx, "", kernel.PaginationOptions{Page: 1, PageSize: 10})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, keep.JobID, page.Items[0].JobID)

	indexed, err := client.ZCard(ctx, jobsIndexKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), indexed, "stale index entries are pruned during listing")
}

func TestJobStoreCountJobsByStatus(t *testing.T) {
	store, _, _ := newTestJobStore(t, RedisJobStoreConfig{})
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.CreateJob(ctx, testJob("a", resume.JobStatusPending, base)))
	require.NoError(t, store.CreateJob(ctx, testJob("b", resume.JobStatusPending, base.Add(time.Second))))
	require.NoError(t, store.CreateJob(ctx, testJob("c", resume.JobStatusCompleted, base.Add(2*time.Second))))
	require.NoError(t, store.CreateJob(ctx, testJob("d", resume.JobStatusFailed, base.Add(3*time.Second))))

	counts, err := store.CountJobsByStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts[resume.JobStatusPending])
	assert.Equal(t, int64(1), counts[resume.JobStatusCompleted])
	assert.Equal(t, int64(1), counts[resume.JobStatusFailed])
	assert.Equal(t, int64(0), counts[resume.JobStatusProcessing])
}

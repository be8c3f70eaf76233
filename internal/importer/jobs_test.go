package importer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealtrack/internal/meals"
	"mealtrack/internal/queue"
	"mealtrack/internal/store"
)

func nextMessage(t *testing.T, ch <-chan queue.Message) queue.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message")
		return queue.Message{}
	}
}

func TestJobs_SubmitAndProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := meals.NewMemStore()
	q := queue.NewInMemory(4)
	jobs := NewJobs(meals.NewService(mem), q, NewMemReports(), nil)

	rep, err := jobs.Submit(ctx, "roster.csv", []byte("Name,Team,Mobile\nAnn,A,1\nBen,B,1\nCat,,3\n"))
	require.NoError(t, err)
	assert.Equal(t, JobPending, rep.Status)

	pending, err := jobs.Report(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, JobPending, pending.Status)

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, jobs.Process(ctx, nextMessage(t, msgs)))

	done, err := jobs.Report(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, JobDone, done.Status)
	assert.Equal(t, "roster.csv", done.Filename)
	require.NotNil(t, done.Report)
	assert.Equal(t, 1, done.Report.Inserted)
	assert.Equal(t, 1, done.Report.Duplicates)
	assert.Len(t, done.Report.Errors, 1)
	assert.NotNil(t, done.FinishedAt)

	all, err := mem.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJobs_BadFileFailsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := queue.NewInMemory(1)
	jobs := NewJobs(meals.NewService(meals.NewMemStore()), q, NewMemReports(), nil)

	rep, err := jobs.Submit(ctx, "roster.xlsx", []byte("garbage"))
	require.NoError(t, err)

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, jobs.Process(ctx, nextMessage(t, msgs)))

	got, err := jobs.Report(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, JobFailed, got.Status)
	assert.NotEmpty(t, got.Error)
	assert.Nil(t, got.Report)
}

func TestJobs_RejectsUnknownExtension(t *testing.T) {
	jobs := NewJobs(meals.NewService(meals.NewMemStore()), queue.NewInMemory(1), NewMemReports(), nil)

	_, err := jobs.Submit(context.Background(), "roster.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	got, err := jobs.Report(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJobs_RunWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := meals.NewMemStore()
	jobs := NewJobs(meals.NewService(mem), queue.NewRedisQueue(client, "test:jobs", nil), store.NewReports(client, time.Hour), nil)

	rep, err := jobs.Submit(ctx, "r.csv", []byte("Name,Team,Mobile\nAnn,A,1\n"))
	require.NoError(t, err)

	go func() { _ = jobs.Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := jobs.Report(ctx, rep.ID)
		return err == nil && got != nil && got.Status == JobDone
	}, 5*time.Second, 20*time.Millisecond)
}

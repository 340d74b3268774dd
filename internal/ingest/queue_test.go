package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdfrag/internal/domain"
	"pdfrag/internal/store"
)

func newQueuePipeline(t *testing.T, sp domain.PageSplitter, chat domain.ChatClient) *Pipeline {
	t.Helper()
	cs := store.New(t.TempDir(), zap.NewNop())
	return New(cs, sp, chat, &fakeIndexer{}, zap.NewNop())
}

func waitForStatus(t *testing.T, q *Queue, id string, want Status) Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if job, ok := q.Job(id); ok && job.Status == want {
			return job
		}
		select {
		case <-deadline:
			job, _ := q.Job(id)
			t.Fatalf("job %s never reached %q, last status %q", id, want, job.Status)
			return Job{}
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestQueueJobLifecycle(t *testing.T) {
	sp := &fakeSplitter{pages: []domain.Page{{Number: 1, ImageBytes: []byte("img")}}}
	chat := &fakeChat{extracted: map[string]string{"img": "hello"}}
	q := NewQueue(newQueuePipeline(t, sp, chat), 1, 4, zap.NewNop())
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue("doc.pdf", []byte("pdf bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job := waitForStatus(t, q, id, StatusDone)
	assert.Equal(t, "doc.pdf", job.Filename)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.Result)
	assert.Equal(t, "hello", job.Result.OriginalContent)
	assert.False(t, job.FinishedAt.IsZero())
}

func TestQueueFailedJob(t *testing.T) {
	sp := &fakeSplitter{err: domain.ErrDecode}
	q := NewQueue(newQueuePipeline(t, sp, &fakeChat{}), 1, 4, zap.NewNop())
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue("broken.pdf", []byte("junk"))
	require.NoError(t, err)

	job := waitForStatus(t, q, id, StatusFailed)
	assert.NotEmpty(t, job.Error)
	assert.Nil(t, job.Result)
}

func TestQueueFullRejectsAndForgets(t *testing.T) {
	// Workers never start, so the backlog fills to capacity and the next
	// enqueue is rejected without leaving a registry entry behind.
	q := NewQueue(newQueuePipeline(t, &fakeSplitter{}, &fakeChat{}), 1, 1, zap.NewNop())

	first, err := q.Enqueue("a.pdf", []byte("a"))
	require.NoError(t, err)

	_, err = q.Enqueue("b.pdf", []byte("b"))
	require.ErrorIs(t, err, ErrQueueFull)

	_, ok := q.Job(first)
	assert.True(t, ok)

	q.mu.RLock()
	defer q.mu.RUnlock()
	assert.Len(t, q.registry, 1)
}

func TestQueueUnknownJob(t *testing.T) {
	q := NewQueue(newQueuePipeline(t, &fakeSplitter{}, &fakeChat{}), 1, 1, zap.NewNop())
	_, ok := q.Job("no-such-id")
	assert.False(t, ok)
}

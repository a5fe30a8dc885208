package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"nuvem/internal/keywords"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedExtractor emits its deltas only after release is closed.
type gatedExtractor struct {
	deltas  []string
	err     error
	release chan struct{}
}

func (g *gatedExtractor) Stream(ctx context.Context, req keywords.Request) (<-chan string, <-chan error) {
	content := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(content)
		defer close(errs)
		if g.release != nil {
			select {
			case <-g.release:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		for _, d := range g.deltas {
			select {
			case content <- d:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if g.err != nil {
			errs <- g.err
		}
	}()
	return content, errs
}

func waitFinished(t *testing.T, job *Job) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = job.Snapshot()
		return snap.Status.Finished()
	}, time.Second, 5*time.Millisecond)
	return snap
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestStore_StreamsAccumulatedText(t *testing.T) {
	ext := &gatedExtractor{deltas: []string{"gato", ", maçã", ", casa"}, release: make(chan struct{})}
	s := NewStore(ext, Options{Retention: time.Minute})
	defer s.Close()

	job := s.Start(keywords.Request{Text: "t", Model: keywords.ModelGPT4o})
	assert.Equal(t, StatusPending, job.Snapshot().Status)

	got, events, unsubscribe, err := s.Subscribe(job.ID)
	require.NoError(t, err)
	defer unsubscribe()
	assert.Same(t, job, got)

	close(ext.release)
	evs := drain(events)
	require.NotEmpty(t, evs)

	last := evs[len(evs)-1]
	assert.Equal(t, EventDone, last.Kind)
	assert.Equal(t, "gato, maçã, casa", last.Text)
	for _, ev := range evs[:len(evs)-1] {
		assert.Equal(t, EventText, ev.Kind)
	}

	snap := job.Snapshot()
	assert.Equal(t, StatusDone, snap.Status)
	assert.Equal(t, "gato, maçã, casa", snap.Text)
	assert.Empty(t, snap.Err)
}

func TestStore_ProviderError(t *testing.T) {
	ext := &gatedExtractor{deltas: []string{"gato"}, err: errors.New("quota exceeded")}
	s := NewStore(ext, Options{Retention: time.Minute})
	defer s.Close()

	job := s.Start(keywords.Request{Text: "t"})
	snap := waitFinished(t, job)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "gato", snap.Text, "partial text is kept")
	assert.Equal(t, "quota exceeded", snap.Err)
}

func TestStore_SubscribeAfterFinish(t *testing.T) {
	s := NewStore(&gatedExtractor{deltas: []string{"a"}}, Options{Retention: time.Minute})
	defer s.Close()

	job := s.Start(keywords.Request{Text: "t"})
	waitFinished(t, job)

	require.Eventually(t, func() bool {
		_, events, unsubscribe, err := s.Subscribe(job.ID)
		if err != nil {
			return false
		}
		defer unsubscribe()
		_, open := <-events
		return !open
	}, time.Second, 5*time.Millisecond)
}

func TestStore_RetentionExpires(t *testing.T) {
	s := NewStore(&gatedExtractor{deltas: []string{"a"}}, Options{Retention: 20 * time.Millisecond})
	defer s.Close()

	job := s.Start(keywords.Request{Text: "t"})
	waitFinished(t, job)

	require.Eventually(t, func() bool {
		_, err := s.Get(job.ID)
		return errors.Is(err, ErrNotFound)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Timeout(t *testing.T) {
	ext := &gatedExtractor{release: make(chan struct{})}
	s := NewStore(ext, Options{Timeout: 20 * time.Millisecond, Retention: time.Minute})
	defer s.Close()

	snap := waitFinished(t, s.Start(keywords.Request{Text: "t"}))
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), snap.Err)
}

func TestStore_JobsAreIndependent(t *testing.T) {
	s := NewStore(&gatedExtractor{deltas: []string{"x"}}, Options{Retention: time.Minute})
	defer s.Close()

	a := s.Start(keywords.Request{Text: "same"})
	b := s.Start(keywords.Request{Text: "same"})
	assert.NotEqual(t, a.ID, b.ID)

	assert.Equal(t, StatusDone, waitFinished(t, a).Status)
	assert.Equal(t, StatusDone, waitFinished(t, b).Status)
	assert.Equal(t, 2, s.Len())
}

func TestStore_UnknownJob(t *testing.T) {
	s := NewStore(&gatedExtractor{}, Options{})
	defer s.Close()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, unsubscribe, err := s.Subscribe("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	unsubscribe()
}

func TestStore_CloseCancelsRunningJobs(t *testing.T) {
	ext := &gatedExtractor{release: make(chan struct{})}
	s := NewStore(ext, Options{Retention: time.Minute})

	job := s.Start(keywords.Request{Text: "t"})
	s.Close()

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, context.Canceled.Error(), snap.Err)
	assert.Equal(t, 0, s.Len())
}

// Package extraction runs keyword extractions as background jobs whose
// progress can be followed by any number of stream subscribers.
package extraction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nuvem/internal/keywords"
	"nuvem/pkg/realtime"
)

// ErrNotFound is returned for unknown or expired job ids.
var ErrNotFound = errors.New("extraction not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// Finished reports whether no further updates will happen.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// EventKind names an update published to subscribers.
type EventKind string

const (
	EventText  EventKind = "text"
	EventDone  EventKind = "done"
	EventError EventKind = "error"
)

// Event carries the accumulated text at the time it was published.
type Event struct {
	Kind EventKind
	Text string
	Err  string
}

// Job is one extraction. Its fields are read through Snapshot.
type Job struct {
	ID        string
	Request   keywords.Request
	CreatedAt time.Time

	mu     sync.Mutex
	text   strings.Builder
	status Status
	err    string
}

// Snapshot is a consistent copy of a job's progress.
type Snapshot struct {
	ID     string
	Text   string
	Status Status
	Err    string
}

// Snapshot returns the job's current progress.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{ID: j.ID, Text: j.text.String(), Status: j.status, Err: j.err}
}

func (j *Job) append(delta string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusStreaming
	j.text.WriteString(delta)
	return j.text.String()
}

func (j *Job) finish(err error) Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.status = StatusFailed
		j.err = err.Error()
		return Event{Kind: EventError, Text: j.text.String(), Err: j.err}
	}
	j.status = StatusDone
	return Event{Kind: EventDone, Text: j.text.String()}
}

// Options configures a Store.
type Options struct {
	// Timeout bounds each extraction. Zero means no limit.
	Timeout time.Duration
	// Retention is how long a finished job stays readable.
	Retention time.Duration
	Logger    *zap.Logger
}

// Store starts jobs and keeps them until their retention elapses.
type Store struct {
	extractor keywords.Extractor
	jobs      *realtime.Store[*Job, Event]
	opts      Options
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates a store that runs jobs with extractor.
func NewStore(extractor keywords.Extractor, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		extractor: extractor,
		jobs:      realtime.NewStore[*Job, Event](),
		opts:      opts,
		logger:    opts.Logger.Named("extraction"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start creates a job for req and begins streaming in the background. Jobs
// are independent: starting a new one never cancels an earlier one.
func (s *Store) Start(req keywords.Request) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Request:   req,
		CreatedAt: time.Now(),
		status:    StatusPending,
	}
	s.jobs.Create(job.ID, job)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(job)
	}()
	return job
}

func (s *Store) run(job *Job) {
	ctx := s.ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	log := s.logger.With(zap.String("job", job.ID), zap.String("model", job.Request.Model))
	start := time.Now()

	content, errs := s.extractor.Stream(ctx, job.Request)
	for delta := range content {
		text := job.append(delta)
		s.jobs.Publish(job.ID, Event{Kind: EventText, Text: text})
	}
	err := <-errs

	ev := job.finish(err)
	if err != nil {
		log.Warn("extraction failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
	} else {
		log.Info("extraction completed", zap.Int("chars", len(ev.Text)), zap.Duration("elapsed", time.Since(start)))
	}
	s.jobs.Publish(job.ID, ev)
	s.jobs.Seal(job.ID)
	s.jobs.ExpireAfter(job.ID, s.opts.Retention)
}

// Get returns a live job.
func (s *Store) Get(id string) (*Job, error) {
	e, ok := s.jobs.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.State, nil
}

// Subscribe returns the job together with a channel of its updates. The
// channel is closed once the job has finished; a finished job yields an
// already closed channel, so callers read the snapshot first.
func (s *Store) Subscribe(id string) (*Job, <-chan Event, func(), error) {
	e, ok := s.jobs.Get(id)
	if !ok {
		return nil, nil, func() {}, ErrNotFound
	}
	ch, unsubscribe, ok := s.jobs.Subscribe(id)
	if !ok {
		return nil, nil, func() {}, ErrNotFound
	}
	return e.State, ch, unsubscribe, nil
}

// Len returns the number of retained jobs.
func (s *Store) Len() int {
	return s.jobs.Len()
}

// Close cancels running jobs, waits for them and drops every job.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
	s.jobs.Close()
}

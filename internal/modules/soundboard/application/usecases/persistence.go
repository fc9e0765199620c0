package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/ports"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

// DefaultJobBufferSize is the default buffer size for the persistence job
// channel. Jobs are small; the buffer is generous so producers do not stall
// on storage latency.
const DefaultJobBufferSize = 1024

// PersistenceJob is one usage-bookkeeping write to apply against the store.
type PersistenceJob interface {
	name() string
	run(ctx context.Context, store ports.PersistenceStore) error
}

// RepairGuildIDJob corrects the guild association of usage rows previously
// recorded for a channel.
type RepairGuildIDJob struct {
	ChannelID snowflake.ID
	GuildID   snowflake.ID
}

func (j RepairGuildIDJob) name() string { return "repair_guild_id" }

func (j RepairGuildIDJob) run(ctx context.Context, store ports.PersistenceStore) error {
	return store.RepairGuildID(ctx, j.ChannelID, j.GuildID)
}

// IncrementUsageJob upserts-and-increments the usage counter for one
// completed playback.
type IncrementUsageJob struct {
	Usage domain.UsageContext
}

func (j IncrementUsageJob) name() string { return "increment_usage" }

func (j IncrementUsageJob) run(ctx context.Context, store ports.PersistenceStore) error {
	return store.IncrementUsage(ctx, j.Usage)
}

// UpsertUserJob refreshes the requester's user record.
type UpsertUserJob struct {
	User domain.UserContext
}

func (j UpsertUserJob) name() string { return "upsert_user" }

func (j UpsertUserJob) run(ctx context.Context, store ports.PersistenceStore) error {
	return store.UpsertUser(ctx, j.User)
}

// JobSubmitter accepts persistence jobs from the drain loops.
type JobSubmitter interface {
	Submit(job PersistenceJob)
}

// PersistenceQueue applies persistence jobs strictly in submission order
// with exactly one worker. Serializing the writes avoids lost updates from
// concurrent upserts against the same key; a failed job is logged and
// dropped, because usage statistics are best-effort.
type PersistenceQueue struct {
	store ports.PersistenceStore
	jobs  chan PersistenceJob

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Compile-time check that PersistenceQueue implements JobSubmitter.
var _ JobSubmitter = (*PersistenceQueue)(nil)

// NewPersistenceQueue creates a PersistenceQueue and starts its worker.
func NewPersistenceQueue(store ports.PersistenceStore, bufferSize int) *PersistenceQueue {
	if bufferSize <= 0 {
		bufferSize = DefaultJobBufferSize
	}

	q := &PersistenceQueue{
		store: store,
		jobs:  make(chan PersistenceJob, bufferSize),
	}
	q.wg.Add(1)
	go q.work()

	return q
}

// Submit appends a job to the queue. Submissions from concurrent drain
// loops are serialized by the channel; the playback path never waits for
// the job to execute.
func (q *PersistenceQueue) Submit(job PersistenceJob) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		slog.Warn("submitted job to closed persistence queue, dropping", "job", job.name())
		return
	}
	q.jobs <- job
}

// Close stops accepting jobs, waits for the worker to drain the queue, and
// returns once every outstanding job has executed.
func (q *PersistenceQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.jobs)
	q.wg.Wait()
}

func (q *PersistenceQueue) work() {
	defer q.wg.Done()

	for job := range q.jobs {
		if err := job.run(context.Background(), q.store); err != nil {
			slog.Warn("persistence job failed", "job", job.name(), "error", err)
			continue
		}
		slog.Debug("applied persistence job", "job", job.name())
	}
}

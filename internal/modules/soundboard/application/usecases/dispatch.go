package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/ports"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

// DispatcherConfig holds the externally supplied policy for the dispatcher.
type DispatcherConfig struct {
	// MaxQueueItems bounds the pending backlog per guild.
	MaxQueueItems int
	// ConnectTimeout bounds voice session acquisition.
	ConnectTimeout time.Duration
	// StartTimeout bounds the wait for a clip to begin output.
	StartTimeout time.Duration
	// FinishTimeout bounds the wait for a playing clip to return to idle.
	FinishTimeout time.Duration
}

// guildQueue is the per-guild backlog. A request stays in pending from
// enqueue until its playback reaches a terminal state, so the head of the
// slice is the in-flight request while its clip plays.
type guildQueue struct {
	pending []*domain.PlaybackRequest
}

// Dispatcher serializes clip playback per guild. It keeps one queue per
// guild with pending work, owns the guild's voice session for the lifetime
// of that queue, and submits persistence jobs as clips complete.
//
// A guild's registry entry exists exactly while its backlog is non-empty or
// a drain loop is running for it; the entry is created by the first enqueue
// and removed by the drain loop that the enqueue started.
type Dispatcher struct {
	provider ports.VoiceSessionProvider
	jobs     JobSubmitter
	cfg      DispatcherConfig

	mu     sync.Mutex
	queues map[snowflake.ID]*guildQueue
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	provider ports.VoiceSessionProvider,
	jobs JobSubmitter,
	cfg DispatcherConfig,
) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		jobs:     jobs,
		cfg:      cfg,
		queues:   make(map[snowflake.ID]*guildQueue),
	}
}

// Enqueue submits a playback request. It returns ErrQueueFull when the
// guild's backlog is at its maximum and never blocks on voice I/O; the
// first request for an idle guild starts that guild's drain loop.
//
// The caller is responsible for having verified that the target channel is
// joinable by the requester; Enqueue does not re-check permissions.
func (d *Dispatcher) Enqueue(req *domain.PlaybackRequest) error {
	d.mu.Lock()
	if q, ok := d.queues[req.GuildID]; ok {
		if len(q.pending) >= d.cfg.MaxQueueItems {
			d.mu.Unlock()
			return ErrQueueFull
		}
		q.pending = append(q.pending, req)
		d.mu.Unlock()
		return nil
	}

	q := &guildQueue{pending: []*domain.PlaybackRequest{req}}
	d.queues[req.GuildID] = q
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(q, req.GuildID, req.TargetChannelID)
	return nil
}

// PendingCount returns the number of pending requests for a guild,
// including the one currently playing. Advisory only; Enqueue re-checks
// the bound authoritatively.
func (d *Dispatcher) PendingCount(guildID snowflake.ID) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if q, ok := d.queues[guildID]; ok {
		return len(q.pending)
	}
	return 0
}

// Shutdown waits for all active drain loops to finish, bounded by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain is the per-guild playback loop. It acquires the guild's voice
// session, plays pending requests in FIFO order, and exits when the backlog
// empties or the session is lost. The loop operates only on its own queue q;
// removal is identity-checked so a late exit never touches a successor queue
// registered by a concurrent enqueue.
func (d *Dispatcher) drain(q *guildQueue, guildID, channelID snowflake.ID) {
	defer d.wg.Done()
	defer d.removeQueue(guildID, q)

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.ConnectTimeout)
	session, err := d.provider.Connect(ctx, guildID, channelID)
	cancel()
	if err != nil {
		slog.Warn("failed to acquire voice session, discarding backlog",
			"guild_id", guildID,
			"channel_id", channelID,
			"error", err,
		)
		return
	}
	defer func() {
		if err := session.Release(); err != nil {
			slog.Warn("failed to release voice session", "guild_id", guildID, "error", err)
		}
	}()

	for {
		req, ok := d.head(guildID, q)
		if !ok {
			return
		}

		err := d.playClip(session, req.ClipReference)
		d.dropHead(q)

		switch {
		case err == nil:
			// Fire-and-forget: job completion never gates further playback.
			d.jobs.Submit(RepairGuildIDJob{ChannelID: req.Usage.ChannelID, GuildID: req.Usage.GuildID})
			d.jobs.Submit(IncrementUsageJob{Usage: req.Usage})
			d.jobs.Submit(UpsertUserJob{User: req.User})
		case errors.Is(err, ports.ErrSessionClosed):
			slog.Warn("voice session lost, discarding backlog",
				"guild_id", guildID,
				"error", err,
			)
			return
		default:
			slog.Warn("clip playback failed, skipping",
				"guild_id", guildID,
				"clip", req.ClipReference,
				"error", err,
			)
		}
	}
}

// playClip plays one clip on the session, bounded by the start and finish
// timeouts. A timeout is a failure for this clip only.
func (d *Dispatcher) playClip(session ports.VoiceSession, clipReference string) error {
	states, err := session.Play(clipReference)
	if err != nil {
		return err
	}

	timer := time.NewTimer(d.cfg.StartTimeout)
	defer timer.Stop()

	started := false
	for {
		select {
		case state, ok := <-states:
			if !ok {
				return fmt.Errorf("%w: session closed state stream", ErrPlaybackFailed)
			}
			switch state {
			case ports.StateStarting:
				// Waiting for output to begin.
			case ports.StatePlaying:
				if !started {
					started = true
					timer.Stop()
					timer.Reset(d.cfg.FinishTimeout)
				}
			case ports.StateIdle:
				return nil
			case ports.StateFailed:
				return ErrPlaybackFailed
			}
		case <-timer.C:
			if !started {
				return fmt.Errorf("%w: no output within %s", ErrPlaybackFailed, d.cfg.StartTimeout)
			}
			return fmt.Errorf("%w: not idle within %s", ErrPlaybackFailed, d.cfg.FinishTimeout)
		}
	}
}

// head returns the queue's head request without removing it. When the
// backlog is empty it removes the registry entry in the same critical
// section, so an enqueue observes either a live queue or no queue.
func (d *Dispatcher) head(guildID snowflake.ID, q *guildQueue) (*domain.PlaybackRequest, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(q.pending) == 0 {
		if d.queues[guildID] == q {
			delete(d.queues, guildID)
		}
		return nil, false
	}
	return q.pending[0], true
}

// dropHead removes the completed head request, freeing backlog capacity.
func (d *Dispatcher) dropHead(q *guildQueue) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(q.pending) > 0 {
		q.pending = q.pending[1:]
	}
}

// removeQueue unregisters q. The identity check matters: by the time an
// exiting drain loop gets here, a fresh enqueue may have registered a
// successor queue for the guild, which must stay registered.
func (d *Dispatcher) removeQueue(guildID snowflake.ID, q *guildQueue) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.queues[guildID] == q {
		delete(d.queues, guildID)
	}
}

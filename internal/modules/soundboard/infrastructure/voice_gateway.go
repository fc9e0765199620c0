package infrastructure

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/ports"
)

// opusSendTimeout bounds a single frame write to the voice connection. A
// write that stalls this long means the connection is gone.
const opusSendTimeout = time.Second

// voiceConn is the slice of a Discord voice connection the session needs.
type voiceConn interface {
	IsReady() bool
	Speaking(bool) error
	Send() chan<- []byte
	Disconnect() error
}

// discordVoiceConn adapts *discordgo.VoiceConnection to voiceConn.
type discordVoiceConn struct {
	vc *discordgo.VoiceConnection
}

func (c *discordVoiceConn) IsReady() bool         { return c.vc.Ready }
func (c *discordVoiceConn) Speaking(b bool) error { return c.vc.Speaking(b) }
func (c *discordVoiceConn) Send() chan<- []byte   { return c.vc.OpusSend }
func (c *discordVoiceConn) Disconnect() error     { return c.vc.Disconnect() }

// VoiceGateway acquires voice sessions over discordgo's native voice
// support.
type VoiceGateway struct {
	session *discordgo.Session
}

// Compile-time check that VoiceGateway implements VoiceSessionProvider.
var _ ports.VoiceSessionProvider = (*VoiceGateway)(nil)

// NewVoiceGateway creates a new VoiceGateway.
func NewVoiceGateway(session *discordgo.Session) *VoiceGateway {
	return &VoiceGateway{session: session}
}

// Connect joins the guild's voice channel and waits for the connection to
// become ready, bounded by ctx.
func (g *VoiceGateway) Connect(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) (ports.VoiceSession, error) {
	type joinResult struct {
		vc  *discordgo.VoiceConnection
		err error
	}

	results := make(chan joinResult, 1)
	go func() {
		vc, err := g.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
		results <- joinResult{vc: vc, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, fmt.Errorf("failed to join voice channel: %w", res.err)
		}
		return &voiceSession{vc: &discordVoiceConn{vc: res.vc}}, nil
	case <-ctx.Done():
		// Tear the connection down if the join completes after the deadline.
		go func() {
			if res := <-results; res.err == nil {
				if err := res.vc.Disconnect(); err != nil {
					slog.Warn("failed to disconnect late voice join", "guild_id", guildID, "error", err)
				}
			}
		}()
		return nil, fmt.Errorf("voice connection not ready: %w", ctx.Err())
	}
}

// streamHandle lets Play and Release stop an in-flight stream and wait for
// it to wind down.
type streamHandle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (h *streamHandle) cancel() {
	h.once.Do(func() { close(h.stop) })
}

// voiceSession is a ports.VoiceSession over one Discord voice connection.
// It is owned by a single drain loop; Play is never called concurrently.
type voiceSession struct {
	vc voiceConn

	mu       sync.Mutex
	released bool
	active   *streamHandle
}

// Play submits one clip for playback. The returned channel carries state
// transitions and is closed after Idle or Failed. A stream left over from a
// clip the caller gave up on is stopped first, so at most one stream feeds
// the connection at a time.
func (s *voiceSession) Play(clipReference string) (<-chan ports.PlaybackState, error) {
	s.mu.Lock()
	if s.released || !s.vc.IsReady() {
		s.mu.Unlock()
		return nil, ports.ErrSessionClosed
	}
	prev := s.active
	handle := &streamHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.active = handle
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	// Buffered to hold every transition of one playback, so the streaming
	// goroutine never blocks on a slow consumer.
	states := make(chan ports.PlaybackState, 4)
	go s.stream(clipReference, states, handle)
	return states, nil
}

// Release stops any in-flight stream and disconnects the voice connection.
// Safe to call more than once.
func (s *voiceSession) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	active := s.active
	s.mu.Unlock()

	if active != nil {
		active.cancel()
		<-active.done
	}
	return s.vc.Disconnect()
}

func (s *voiceSession) stream(clipReference string, states chan<- ports.PlaybackState, handle *streamHandle) {
	defer close(handle.done)
	defer close(states)
	states <- ports.StateStarting

	clip, err := openClip(clipReference)
	if err != nil {
		slog.Warn("failed to open clip", "clip", clipReference, "error", err)
		states <- ports.StateFailed
		return
	}
	defer clip.Close()

	if err := s.vc.Speaking(true); err != nil {
		slog.Warn("failed to start speaking", "error", err)
		states <- ports.StateFailed
		return
	}
	defer func() {
		if err := s.vc.Speaking(false); err != nil {
			slog.Debug("failed to stop speaking", "error", err)
		}
	}()

	reader := bufio.NewReader(clip)
	playing := false
	for {
		frame, err := readOpusFrame(reader)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			slog.Warn("failed to read opus frame", "clip", clipReference, "error", err)
			states <- ports.StateFailed
			return
		}

		select {
		case s.vc.Send() <- frame:
		case <-handle.stop:
			// The clip was abandoned; stop feeding the connection.
			return
		case <-time.After(opusSendTimeout):
			slog.Warn("voice send stalled, abandoning clip", "clip", clipReference)
			states <- ports.StateFailed
			return
		}

		if !playing {
			playing = true
			states <- ports.StatePlaying
		}
	}

	states <- ports.StateIdle
}

package ports

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
)

// ErrSessionClosed is returned by Play when the underlying voice connection
// has been lost or released. The caller should abandon the session rather
// than retry on it.
var ErrSessionClosed = errors.New("voice session closed")

// PlaybackState describes the state of a clip submitted to a voice session.
type PlaybackState int

const (
	// StateStarting means the clip was accepted and output has not begun.
	StateStarting PlaybackState = iota
	// StatePlaying means audio output has begun.
	StatePlaying
	// StateIdle means the clip finished and the session is ready for the
	// next one. Terminal.
	StateIdle
	// StateFailed means the clip could not be played to completion. Terminal.
	StateFailed
)

func (s PlaybackState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StateIdle:
		return "idle"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// VoiceSession is an established audio output channel into one guild's voice
// context. A session plays one clip at a time and is owned by exactly one
// drain loop for its entire lifetime.
type VoiceSession interface {
	// Play submits a clip and returns a channel of state transitions. The
	// channel is closed after a terminal state (Idle or Failed) is sent.
	// Play returns ErrSessionClosed if the session is no longer usable.
	Play(clipReference string) (<-chan PlaybackState, error)

	// Release tears the session down. Safe to call more than once.
	Release() error
}

// VoiceSessionProvider acquires connected voice sessions. Connect blocks
// until the session is ready or ctx expires.
type VoiceSessionProvider interface {
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (VoiceSession, error)
}

package usecases

import "errors"

// Errors surfaced by the soundboard use cases.
var (
	// ErrQueueFull is returned when a guild's playback backlog is at its
	// configured maximum. The caller should tell the requester to retry.
	ErrQueueFull = errors.New("too many items are in the queue")

	// ErrPlaybackFailed is returned when a single clip fails to play. The
	// drain loop skips the clip and continues with the backlog.
	ErrPlaybackFailed = errors.New("clip playback failed")

	// ErrSoundCommandNotFound is returned when no sound command matches the
	// requested name or ID.
	ErrSoundCommandNotFound = errors.New("sound command not found")

	// ErrSoundCommandDisabled is returned when the requested sound command
	// exists but is disabled.
	ErrSoundCommandDisabled = errors.New("sound command is disabled")

	// ErrNoSounds is returned when a sound command has no enabled variants.
	ErrNoSounds = errors.New("no sounds found for command")
)

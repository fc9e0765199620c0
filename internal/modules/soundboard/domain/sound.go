package domain

import (
	"errors"
	"math/rand"
)

// ErrVariantNotFound is returned when a requested sound variant does not
// exist or is disabled.
var ErrVariantNotFound = errors.New("sound variant not found")

// SoundCommand is a named group of sound variants exposed as one slash
// command (e.g. /airhorn).
type SoundCommand struct {
	ID          int64
	Name        string
	PrettyName  string
	Description string
	Emoji       string
	Disabled    bool
}

// Sound is a single playable variant belonging to a SoundCommand.
type Sound struct {
	ID             int64
	SoundCommandID int64
	Name           string
	Emoji          string
	FileReference  string
	Disabled       bool
}

// ButtonEmoji returns the emoji to display on a play button for this
// variant. The variant's own emoji wins over the command's.
func (s Sound) ButtonEmoji(cmd SoundCommand) string {
	if s.Emoji != "" {
		return s.Emoji
	}
	return cmd.Emoji
}

// SelectVariant picks the variant to play from the enabled variants of a
// sound command. A requested ID must match one of the variants; requestedID
// of zero means no explicit choice, in which case any variant is picked at
// random.
func SelectVariant(sounds []Sound, requestedID int64) (Sound, error) {
	if len(sounds) == 0 {
		return Sound{}, ErrVariantNotFound
	}
	if requestedID == 0 {
		return sounds[rand.Intn(len(sounds))], nil
	}
	for _, s := range sounds {
		if s.ID == requestedID {
			return s, nil
		}
	}
	return Sound{}, ErrVariantNotFound
}

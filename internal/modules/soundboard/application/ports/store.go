package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

// PersistenceStore is the durable store for usage counters and user records.
// All three operations are idempotent at the row level and are applied by
// the single persistence worker, never by the audio path directly.
type PersistenceStore interface {
	// RepairGuildID corrects the guild association of all usage rows
	// recorded for a channel.
	RepairGuildID(ctx context.Context, channelID, guildID snowflake.ID) error

	// IncrementUsage upserts the usage row for the given key and increments
	// its counter by one.
	IncrementUsage(ctx context.Context, usage domain.UsageContext) error

	// UpsertUser creates or refreshes the requester's user record.
	UpsertUser(ctx context.Context, user domain.UserContext) error
}

// SoundCatalog provides read access to the sound command catalog for
// command handlers and command registration.
type SoundCatalog interface {
	// ListEnabledSoundCommands returns all enabled sound commands.
	ListEnabledSoundCommands(ctx context.Context) ([]domain.SoundCommand, error)

	// GetSoundCommand returns the sound command with the given ID,
	// enabled or not.
	GetSoundCommand(ctx context.Context, id int64) (domain.SoundCommand, error)

	// GetSoundCommandByName returns the sound command with the given name.
	GetSoundCommandByName(ctx context.Context, name string) (domain.SoundCommand, error)

	// ListEnabledSounds returns the enabled variants of a sound command.
	ListEnabledSounds(ctx context.Context, soundCommandID int64) ([]domain.Sound, error)
}

// UsageStats provides aggregate usage counts for the stats command.
type UsageStats interface {
	TotalUsage(ctx context.Context) (int64, error)
	GuildUsage(ctx context.Context, guildID snowflake.ID) (int64, error)
	UserUsage(ctx context.Context, userID snowflake.ID) (int64, error)
}

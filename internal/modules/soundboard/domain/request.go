package domain

import "github.com/disgoorg/snowflake/v2"

// UsageContext identifies a single completed playback for usage counting.
// The (GuildID, ChannelID, UserID, SoundID) tuple is the natural key of a
// usage counter row.
type UsageContext struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	UserID    snowflake.ID
	SoundID   int64
}

// UserContext carries the requester's profile fields for the user upsert
// that follows a completed playback.
type UserContext struct {
	UserID        snowflake.ID
	Username      string
	Discriminator string
}

// PlaybackRequest is an immutable playback order created by a command or
// button handler. It is consumed exactly once by the dispatcher.
type PlaybackRequest struct {
	GuildID         snowflake.ID
	TargetChannelID snowflake.ID
	// ClipReference locates the clip audio: a ./sounds/ path or an HTTP URL.
	ClipReference string
	Usage         UsageContext
	User          UserContext
}

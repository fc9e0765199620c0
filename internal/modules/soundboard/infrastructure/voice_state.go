package infrastructure

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// DiscordVoiceStateResolver answers voice-state questions from the gateway
// session's state cache.
type DiscordVoiceStateResolver struct {
	session *discordgo.Session
}

// NewDiscordVoiceStateResolver creates a new DiscordVoiceStateResolver.
func NewDiscordVoiceStateResolver(session *discordgo.Session) *DiscordVoiceStateResolver {
	return &DiscordVoiceStateResolver{session: session}
}

// UserVoiceChannel returns the voice channel the user currently occupies in
// the guild, or zero if the user is not in voice.
func (p *DiscordVoiceStateResolver) UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error) {
	vs, err := p.session.State.VoiceState(guildID.String(), userID.String())
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read voice state: %w", err)
	}
	if vs.ChannelID == "" {
		return 0, nil
	}
	return snowflake.Parse(vs.ChannelID)
}

// CanConnect reports whether the bot has permission to connect to the
// channel.
func (p *DiscordVoiceStateResolver) CanConnect(channelID snowflake.ID) bool {
	perms, err := p.session.State.UserChannelPermissions(p.session.State.User.ID, channelID.String())
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionVoiceConnect != 0
}

package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/bot"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/usecases"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

// PlaybackEnqueuer submits playback requests and reports queue depth.
type PlaybackEnqueuer interface {
	Enqueue(req *domain.PlaybackRequest) error
	PendingCount(guildID snowflake.ID) int
}

// VoiceStateResolver reports the voice channel a user occupies and whether
// the bot may connect to it.
type VoiceStateResolver interface {
	// UserVoiceChannel returns the user's voice channel, or zero if the
	// user is not in voice.
	UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)

	// CanConnect reports whether the bot has permission to connect to the
	// channel.
	CanConnect(channelID snowflake.ID) bool
}

// CommandHandlers holds the soundboard command and button handlers.
type CommandHandlers struct {
	catalog       *usecases.CatalogService
	stats         *usecases.StatsService
	enqueuer      PlaybackEnqueuer
	voiceStates   VoiceStateResolver
	maxQueueItems int
	inviteURL     string
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	catalog *usecases.CatalogService,
	stats *usecases.StatsService,
	enqueuer PlaybackEnqueuer,
	voiceStates VoiceStateResolver,
	maxQueueItems int,
	inviteURL string,
) *CommandHandlers {
	return &CommandHandlers{
		catalog:       catalog,
		stats:         stats,
		enqueuer:      enqueuer,
		voiceStates:   voiceStates,
		maxQueueItems: maxQueueItems,
		inviteURL:     inviteURL,
	}
}

// HandleSound handles every dynamic per-sound slash command. The command
// name is the sound command name; the optional variant option picks a
// specific variant.
func (h *CommandHandlers) HandleSound(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	if i.Member == nil || i.GuildID == "" {
		return respondEphemeral(r, "You cannot trigger the bot in a direct message.")
	}

	data := i.ApplicationCommandData()
	var variantID int64
	for _, opt := range data.Options {
		if opt.Name == "variant" {
			variantID = opt.IntValue()
		}
	}

	resolved, err := h.catalog.ResolveSound(ctx, usecases.ResolveSoundInput{
		CommandName: data.Name,
		VariantID:   variantID,
	})
	if err != nil {
		return respondEphemeral(r, resolveErrorMessage(err))
	}

	return h.dispatch(i, r, resolved, true)
}

// HandleSoundboard handles the /soundboard command: it replies with a grid
// of play buttons for the chosen sound command's variants.
func (h *CommandHandlers) HandleSoundboard(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	if i.Member == nil || i.GuildID == "" {
		return respondEphemeral(r, "You cannot trigger the bot in a direct message.")
	}

	data := i.ApplicationCommandData()
	var soundCommandID int64
	for _, opt := range data.Options {
		if opt.Name == "sound" {
			soundCommandID = opt.IntValue()
		}
	}

	board, err := h.catalog.Soundboard(ctx, soundCommandID)
	if err != nil {
		return respondEphemeral(r, resolveErrorMessage(err))
	}

	buttons := make([]discordgo.Button, 0, len(board.Sounds))
	for _, sound := range board.Sounds {
		buttons = append(buttons, playButton(sound.Name, board.Command, sound))
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Here are the options for that sound.",
			Components: buttonGrid(buttons),
		},
	})
}

// HandlePlayButton handles a press of a play/replay button.
func (h *CommandHandlers) HandlePlayButton(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	if i.Member == nil || i.GuildID == "" {
		return respondEphemeral(r, "You cannot trigger the bot in a direct message.")
	}

	var id playButtonID
	if err := json.Unmarshal([]byte(i.MessageComponentData().CustomID), &id); err != nil {
		return respondEphemeral(r, "The button requested was invalid.")
	}
	if id.Name != playButtonName {
		return respondEphemeral(r, "The button requested was not found.")
	}
	if id.Version < playButtonVersion {
		return respondEphemeral(r, "The button requested was outdated, try running the command again.")
	}

	resolved, err := h.catalog.ResolveByID(ctx, usecases.ResolveByIDInput{
		SoundCommandID: id.SoundCommandID,
		SoundID:        id.SoundID,
	})
	if err != nil {
		return respondEphemeral(r, resolveErrorMessage(err))
	}

	return h.dispatch(i, r, resolved, false)
}

// HandleStats handles the /stats command.
func (h *CommandHandlers) HandleStats(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	user := requester(i)
	if user == nil {
		return respondEphemeral(r, "Could not determine who ran the command.")
	}
	userID, err := snowflake.Parse(user.ID)
	if err != nil {
		return respondEphemeral(r, "Invalid user")
	}

	var guildID snowflake.ID
	if i.GuildID != "" {
		guildID, err = snowflake.Parse(i.GuildID)
		if err != nil {
			return respondEphemeral(r, "Invalid guild")
		}
	}

	summary, err := h.stats.Summary(ctx, usecases.StatsSummaryInput{
		GuildID: guildID,
		UserID:  userID,
	})
	if err != nil {
		return respondEphemeral(r, "The stats could not be retrieved right now.")
	}

	content := fmt.Sprintf("**Statistics**\n**Global:** %d", summary.Total)
	if summary.GuildTotal != nil {
		content += fmt.Sprintf("\n**Guild:** %d", *summary.GuildTotal)
	}
	content += fmt.Sprintf("\n**You:** %d", summary.UserTotal)

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

// HandleInvite handles the /invite command.
func (h *CommandHandlers) HandleInvite(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return respondEphemeral(r, fmt.Sprintf("Invite the bot to your server: %s", h.inviteURL))
}

// dispatch runs the shared enqueue path: voice-state and permission checks,
// advisory depth check, then the authoritative enqueue. When acknowledge is
// true a "Dispatching sound..." message with a replay button is sent;
// otherwise the interaction is acknowledged without a new message (button
// presses).
func (h *CommandHandlers) dispatch(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	resolved *usecases.ResolveOutput,
	acknowledge bool,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondEphemeral(r, "Invalid guild")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondEphemeral(r, "Invalid user")
	}

	voiceChannelID, err := h.voiceStates.UserVoiceChannel(guildID, userID)
	if err != nil || voiceChannelID == 0 {
		return respondEphemeral(r, "You need to be in a voice channel to run this command.")
	}
	if !h.voiceStates.CanConnect(voiceChannelID) {
		return respondEphemeral(r, "The bot does not have permissions to connect to the voice channel.")
	}

	if h.enqueuer.PendingCount(guildID) >= h.maxQueueItems {
		return respondEphemeral(r, "Too many items are in the queue! Try again in a moment.")
	}

	err = h.enqueuer.Enqueue(&domain.PlaybackRequest{
		GuildID:         guildID,
		TargetChannelID: voiceChannelID,
		ClipReference:   resolved.Sound.FileReference,
		Usage: domain.UsageContext{
			GuildID:   guildID,
			ChannelID: voiceChannelID,
			UserID:    userID,
			SoundID:   resolved.Sound.ID,
		},
		User: domain.UserContext{
			UserID:        userID,
			Username:      i.Member.User.Username,
			Discriminator: i.Member.User.Discriminator,
		},
	})
	if errors.Is(err, usecases.ErrQueueFull) {
		return respondEphemeral(r, "Too many items are in the queue! Try again in a moment.")
	}
	if err != nil {
		return respondEphemeral(r, "The sound could not be queued right now.")
	}

	if !acknowledge {
		return r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
	}

	replay := playButton("Replay", resolved.Command, resolved.Sound)
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Dispatching sound...",
			Components: buttonGrid([]discordgo.Button{replay}),
		},
	})
}

// requester returns the invoking user for both guild and DM interactions.
func requester(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// resolveErrorMessage maps catalog resolution errors to user-facing text.
func resolveErrorMessage(err error) string {
	switch {
	case errors.Is(err, usecases.ErrSoundCommandNotFound):
		return "No sound was found for this command."
	case errors.Is(err, usecases.ErrSoundCommandDisabled):
		return "The sound command requested is disabled."
	case errors.Is(err, usecases.ErrNoSounds):
		return "No sounds were found for the command requested."
	case errors.Is(err, domain.ErrVariantNotFound):
		return "The sound requested was not found."
	}
	return "The sound could not be resolved right now."
}

func respondEphemeral(r bot.Responder, content string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

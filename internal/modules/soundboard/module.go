package soundboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/hornsolutions/hornbot/internal/bot"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/usecases"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/infrastructure"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/presentation"
)

func init() {
	bot.Register(&SoundboardModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*SoundboardModule)(nil)

// shutdownTimeout bounds the wait for in-flight playback on shutdown.
const shutdownTimeout = 30 * time.Second

// SoundboardModule provides sound clip playback commands.
type SoundboardModule struct {
	config *Config

	store      *infrastructure.SQLiteStore
	jobs       *usecases.PersistenceQueue
	dispatcher *usecases.Dispatcher
	handlers   *presentation.CommandHandlers

	// commands is generated from the catalog during Init.
	commands []*discordgo.ApplicationCommand
}

// Name returns the module name.
func (m *SoundboardModule) Name() string {
	return "soundboard"
}

// Commands returns the slash commands for this module. The per-sound
// commands are generated from the catalog, so this is only valid after
// Init.
func (m *SoundboardModule) Commands() []*discordgo.ApplicationCommand {
	return m.commands
}

// CommandHandlers returns the command handlers for this module. The
// fallback entry catches every dynamically generated per-sound command.
func (m *SoundboardModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"soundboard":           m.handlers.HandleSoundboard,
		"stats":                m.handlers.HandleStats,
		"invite":               m.handlers.HandleInvite,
		bot.FallbackHandlerKey: m.handlers.HandleSound,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *SoundboardModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *SoundboardModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *SoundboardModule) Init(deps bot.ModuleDependencies) error {
	store, err := infrastructure.OpenSQLiteStore(m.config.DatabasePath)
	if err != nil {
		return err
	}
	m.store = store

	m.jobs = usecases.NewPersistenceQueue(store, m.config.JobBufferSize)

	gateway := infrastructure.NewVoiceGateway(deps.Session)
	m.dispatcher = usecases.NewDispatcher(gateway, m.jobs, usecases.DispatcherConfig{
		MaxQueueItems:  m.config.MaxQueueItems,
		ConnectTimeout: m.config.ConnectTimeout,
		StartTimeout:   m.config.StartTimeout,
		FinishTimeout:  m.config.FinishTimeout,
	})

	catalog := usecases.NewCatalogService(store)
	stats := usecases.NewStatsService(store)
	voiceStates := infrastructure.NewDiscordVoiceStateResolver(deps.Session)

	m.handlers = presentation.NewCommandHandlers(
		catalog,
		stats,
		m.dispatcher,
		voiceStates,
		m.config.MaxQueueItems,
		m.config.InviteURL,
	)

	entries, err := catalog.Commands(context.Background())
	if err != nil {
		return err
	}
	m.commands = presentation.BuildCommands(entries)

	slog.Info("soundboard module initialized", "sound_commands", len(entries))

	return nil
}

// Shutdown cleans up module resources. Playback drains first so the final
// usage counters reach the persistence queue before it closes.
func (m *SoundboardModule) Shutdown() error {
	if m.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.dispatcher.Shutdown(ctx); err != nil {
			slog.Warn("dispatcher shutdown timed out", "error", err)
		}
	}

	if m.jobs != nil {
		m.jobs.Close()
	}

	if m.store != nil {
		return m.store.Close()
	}

	return nil
}

// handleInteractionCreate routes play button presses. Slash commands go
// through the bot's handler map; components arrive here.
func (m *SoundboardModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	responder := bot.NewDiscordResponder(s, i.Interaction)
	if err := m.handlers.HandlePlayButton(s, i, responder); err != nil {
		slog.Error("failed to handle play button", "error", err)
	}
}

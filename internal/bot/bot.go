package bot

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/bwmarrin/discordgo"
)

// commandRegistrar is the slice of the Discord session used to publish the
// command set.
type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	handlers map[string]InteractionHandler

	// newResponder builds the Responder handed to interaction handlers.
	newResponder func(s *discordgo.Session, i *discordgo.Interaction) Responder
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]InteractionHandler),
		newResponder: func(s *discordgo.Session, i *discordgo.Interaction) Responder {
			return NewDiscordResponder(s, i)
		},
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start initializes the bot, connects to Discord, and registers commands.
func (b *Bot) Start() error {
	// Load module configs before anything touches Discord
	if err := b.loadModuleConfigs(); err != nil {
		return err
	}

	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildVoiceStates
	b.session = session

	// Open the connection before module init; modules need live session
	// state (bot user, voice states).
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build handler map
	b.buildHandlerMap()

	// Register interaction handler
	b.session.AddHandler(b.handleInteraction)

	// Register module event handlers
	b.registerEventHandlers()

	// Register commands
	if err := b.registerCommands(b.session, b.session.State.User.ID); err != nil {
		return err
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// loadModuleConfigs loads configuration for modules that need it.
func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		cfgMod, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := cfgMod.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load config for %s module: %w", mod.Name(), err)
		}
	}
	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the command name to handler mapping.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		maps.Copy(b.handlers, mod.CommandHandlers())
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands replaces the bot's global command set with the commands
// collected from the modules. A bulk overwrite drops dynamic sound commands
// that no longer exist in the catalog.
func (b *Bot) registerCommands(registrar commandRegistrar, appID string) error {
	commands := b.collectCommands()

	_, err := registrar.ApplicationCommandBulkOverwrite(
		appID,
		"", // Empty string registers commands globally
		commands,
	)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	slog.Debug("registered commands", "count", len(commands))

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming application commands to the matching
// handler, falling back to the wildcard handler for dynamically generated
// commands.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	responder := b.newResponder(s, i.Interaction)

	handler, ok := b.handlers[cmdName]
	if !ok {
		handler, ok = b.handlers[FallbackHandlerKey]
	}
	if !ok {
		slog.Warn("found no handler for command", "command", cmdName)
		respondWithEmbed(responder, "Unknown Command", "This command is not recognized.", colorYellow)
		return
	}

	if err := handler(s, i, responder); err != nil {
		slog.Error("failed to handle command", "command", cmdName, "error", err)
		respondWithEmbed(responder, "Error", "An error occurred while processing your command.",
			colorRed)
	}
}

// respondWithEmbed sends an embed response to an interaction.
func respondWithEmbed(r Responder, title, description string, color int) {
	err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}

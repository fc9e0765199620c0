package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hornsolutions/hornbot/internal/admin"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/infrastructure"
)

var version = "dev"

// config holds the admin server configuration.
type config struct {
	ListenAddress string `env:"ADMIN_LISTEN_ADDRESS" envDefault:":8080"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"./data/hornbot.db"`

	// DiscordToken and ApplicationID enable the register-commands
	// endpoint; without them the endpoint returns 503.
	DiscordToken  string `env:"DISCORD_TOKEN"`
	ApplicationID string `env:"APPLICATION_ID"`
	LogFile       string `env:"LOG_FILE"`
}

func main() {
	_ = godotenv.Load()

	cfg := &config{}
	if err := env.Parse(cfg); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		})
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, nil)))

	slog.Info("starting hornadmin", "version", version)

	store, err := infrastructure.OpenSQLiteStore(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// REST-only Discord session; the gateway connection belongs to the bot
	// process.
	var registrar admin.CommandRegistrar
	if cfg.DiscordToken != "" && cfg.ApplicationID != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			slog.Error("failed to create Discord session", "error", err)
			os.Exit(1)
		}
		registrar = session
	} else {
		slog.Warn("DISCORD_TOKEN or APPLICATION_ID not set, command registration disabled")
	}

	server := admin.NewServer(store, registrar, cfg.ApplicationID)

	go func() {
		if err := server.Start(cfg.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown", "error", err)
	}

	slog.Info("completed admin shutdown")
}

package bot

import (
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds the bot-wide configuration loaded from environment
// variables. Module-specific settings live with the modules.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`

	// LogFile, when set, duplicates log output to a rotating file.
	LogFile string `env:"LOG_FILE"`
	// LogLevel sets the minimum level for log output.
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads configuration from environment variables. Returns an
// error when required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

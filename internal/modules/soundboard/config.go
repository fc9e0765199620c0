package soundboard

import "time"

// Config holds the soundboard module configuration.
type Config struct {
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/hornbot.db"`
	InviteURL    string `env:"INVITE_URL,notEmpty"`

	// MaxQueueItems bounds the pending backlog per guild, counting the
	// clip currently playing.
	MaxQueueItems int `env:"MAX_QUEUE_ITEMS" envDefault:"3"`

	ConnectTimeout time.Duration `env:"VOICE_CONNECT_TIMEOUT" envDefault:"30s"`
	StartTimeout   time.Duration `env:"PLAYBACK_START_TIMEOUT" envDefault:"5s"`
	FinishTimeout  time.Duration `env:"PLAYBACK_FINISH_TIMEOUT" envDefault:"5s"`

	JobBufferSize int `env:"JOB_BUFFER_SIZE" envDefault:"1024"`
}

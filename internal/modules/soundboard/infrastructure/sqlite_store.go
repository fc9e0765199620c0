package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when a catalog row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS sound_commands (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT    NOT NULL UNIQUE,
    pretty_name TEXT    NOT NULL,
    description TEXT    NOT NULL DEFAULT '',
    emoji       TEXT    NOT NULL DEFAULT '',
    disabled    INTEGER NOT NULL DEFAULT 0 CHECK (disabled IN (0,1))
);

CREATE TABLE IF NOT EXISTS sounds (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    sound_command_id INTEGER NOT NULL REFERENCES sound_commands(id),
    name             TEXT    NOT NULL,
    emoji            TEXT    NOT NULL DEFAULT '',
    file_reference   TEXT    NOT NULL,
    disabled         INTEGER NOT NULL DEFAULT 0 CHECK (disabled IN (0,1)),
    UNIQUE(sound_command_id, name)
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT    NOT NULL,
    discriminator TEXT    NOT NULL,
    last_update   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS usage (
    guild_id   INTEGER NOT NULL,
    channel_id INTEGER NOT NULL,
    user_id    INTEGER NOT NULL,
    sound_id   INTEGER NOT NULL REFERENCES sounds(id),
    counter    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (guild_id, channel_id, user_id, sound_id)
);

CREATE INDEX IF NOT EXISTS idx_usage_channel ON usage(channel_id);
CREATE INDEX IF NOT EXISTS idx_usage_guild ON usage(guild_id);
CREATE INDEX IF NOT EXISTS idx_usage_user ON usage(user_id);
`

// SQLiteStore is the durable store for the sound catalog, user records and
// usage counters.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and if needed creates) the database at dbPath and
// ensures the schema exists.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory databases exist per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- ports.PersistenceStore ---

// RepairGuildID rewrites the guild association of all usage rows recorded
// for a channel.
func (s *SQLiteStore) RepairGuildID(ctx context.Context, channelID, guildID snowflake.ID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE usage SET guild_id = ? WHERE channel_id = ?`,
		int64(guildID), int64(channelID),
	)
	if err != nil {
		return fmt.Errorf("failed to repair guild id: %w", err)
	}
	return nil
}

// IncrementUsage upserts the usage row for the 4-tuple key and increments
// its counter. The increment happens inside the store, so re-applying jobs
// in order never loses an update.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, usage domain.UsageContext) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage (guild_id, channel_id, user_id, sound_id, counter)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT (guild_id, channel_id, user_id, sound_id)
		DO UPDATE SET counter = counter + 1`,
		int64(usage.GuildID), int64(usage.ChannelID), int64(usage.UserID), usage.SoundID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// UpsertUser creates or refreshes a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user domain.UserContext) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, discriminator, last_update)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET username = excluded.username,
		              discriminator = excluded.discriminator,
		              last_update = excluded.last_update`,
		int64(user.UserID), user.Username, user.Discriminator, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// --- ports.SoundCatalog ---

// ListEnabledSoundCommands returns all enabled sound commands ordered by name.
func (s *SQLiteStore) ListEnabledSoundCommands(ctx context.Context) ([]domain.SoundCommand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pretty_name, description, emoji, disabled
		FROM sound_commands WHERE disabled = 0 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sound commands: %w", err)
	}
	defer rows.Close()

	return scanSoundCommands(rows)
}

// GetSoundCommand returns the sound command with the given ID.
func (s *SQLiteStore) GetSoundCommand(ctx context.Context, id int64) (domain.SoundCommand, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, pretty_name, description, emoji, disabled
		FROM sound_commands WHERE id = ?`, id)
	return scanSoundCommand(row)
}

// GetSoundCommandByName returns the sound command with the given name.
func (s *SQLiteStore) GetSoundCommandByName(ctx context.Context, name string) (domain.SoundCommand, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, pretty_name, description, emoji, disabled
		FROM sound_commands WHERE name = ?`, name)
	return scanSoundCommand(row)
}

// ListEnabledSounds returns the enabled variants of a sound command ordered
// by name.
func (s *SQLiteStore) ListEnabledSounds(ctx context.Context, soundCommandID int64) ([]domain.Sound, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sound_command_id, name, emoji, file_reference, disabled
		FROM sounds WHERE sound_command_id = ? AND disabled = 0 ORDER BY name`,
		soundCommandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sounds: %w", err)
	}
	defer rows.Close()

	return scanSounds(rows)
}

// --- ports.UsageStats ---

// TotalUsage returns the global playback count.
func (s *SQLiteStore) TotalUsage(ctx context.Context) (int64, error) {
	return s.sumCounter(ctx, `SELECT COALESCE(SUM(counter), 0) FROM usage`)
}

// GuildUsage returns the playback count for one guild.
func (s *SQLiteStore) GuildUsage(ctx context.Context, guildID snowflake.ID) (int64, error) {
	return s.sumCounter(ctx,
		`SELECT COALESCE(SUM(counter), 0) FROM usage WHERE guild_id = ?`, int64(guildID))
}

// UserUsage returns the playback count for one user across all guilds.
func (s *SQLiteStore) UserUsage(ctx context.Context, userID snowflake.ID) (int64, error) {
	return s.sumCounter(ctx,
		`SELECT COALESCE(SUM(counter), 0) FROM usage WHERE user_id = ?`, int64(userID))
}

func (s *SQLiteStore) sumCounter(ctx context.Context, query string, args ...any) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum usage counters: %w", err)
	}
	return total, nil
}

// --- catalog administration ---

// SoundCommandUpdate is a partial update of a sound command; nil fields are
// left unchanged.
type SoundCommandUpdate struct {
	Name        *string
	PrettyName  *string
	Description *string
	Emoji       *string
	Disabled    *bool
}

// SoundUpdate is a partial update of a sound variant; nil fields are left
// unchanged.
type SoundUpdate struct {
	SoundCommandID *int64
	Name           *string
	Emoji          *string
	FileReference  *string
	Disabled       *bool
}

// ListSoundCommands returns a page of sound commands, enabled or not.
func (s *SQLiteStore) ListSoundCommands(ctx context.Context, limit, offset int) ([]domain.SoundCommand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pretty_name, description, emoji, disabled
		FROM sound_commands ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sound commands: %w", err)
	}
	defer rows.Close()

	return scanSoundCommands(rows)
}

// ListSounds returns a page of sound variants, enabled or not.
func (s *SQLiteStore) ListSounds(ctx context.Context, limit, offset int) ([]domain.Sound, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sound_command_id, name, emoji, file_reference, disabled
		FROM sounds ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sounds: %w", err)
	}
	defer rows.Close()

	return scanSounds(rows)
}

// GetSound returns the sound variant with the given ID.
func (s *SQLiteStore) GetSound(ctx context.Context, id int64) (domain.Sound, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sound_command_id, name, emoji, file_reference, disabled
		FROM sounds WHERE id = ?`, id)

	var snd domain.Sound
	err := row.Scan(&snd.ID, &snd.SoundCommandID, &snd.Name, &snd.Emoji, &snd.FileReference, &snd.Disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sound{}, ErrNotFound
	}
	if err != nil {
		return domain.Sound{}, fmt.Errorf("failed to get sound: %w", err)
	}
	return snd, nil
}

// GetSoundByName returns the variant of a sound command with the given name.
func (s *SQLiteStore) GetSoundByName(ctx context.Context, soundCommandID int64, name string) (domain.Sound, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sound_command_id, name, emoji, file_reference, disabled
		FROM sounds WHERE sound_command_id = ? AND name = ?`, soundCommandID, name)

	var snd domain.Sound
	err := row.Scan(&snd.ID, &snd.SoundCommandID, &snd.Name, &snd.Emoji, &snd.FileReference, &snd.Disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sound{}, ErrNotFound
	}
	if err != nil {
		return domain.Sound{}, fmt.Errorf("failed to get sound: %w", err)
	}
	return snd, nil
}

// CreateSoundCommand inserts a sound command and returns it with its ID set.
func (s *SQLiteStore) CreateSoundCommand(ctx context.Context, cmd domain.SoundCommand) (domain.SoundCommand, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sound_commands (name, pretty_name, description, emoji, disabled)
		VALUES (?, ?, ?, ?, ?)`,
		cmd.Name, cmd.PrettyName, cmd.Description, cmd.Emoji, cmd.Disabled)
	if err != nil {
		return domain.SoundCommand{}, fmt.Errorf("failed to create sound command: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.SoundCommand{}, fmt.Errorf("failed to read sound command id: %w", err)
	}
	cmd.ID = id
	return cmd, nil
}

// CreateSound inserts a sound variant and returns it with its ID set.
func (s *SQLiteStore) CreateSound(ctx context.Context, snd domain.Sound) (domain.Sound, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sounds (sound_command_id, name, emoji, file_reference, disabled)
		VALUES (?, ?, ?, ?, ?)`,
		snd.SoundCommandID, snd.Name, snd.Emoji, snd.FileReference, snd.Disabled)
	if err != nil {
		return domain.Sound{}, fmt.Errorf("failed to create sound: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Sound{}, fmt.Errorf("failed to read sound id: %w", err)
	}
	snd.ID = id
	return snd, nil
}

// UpdateSoundCommand applies a partial update and returns the updated row.
func (s *SQLiteStore) UpdateSoundCommand(ctx context.Context, id int64, update SoundCommandUpdate) (domain.SoundCommand, error) {
	current, err := s.GetSoundCommand(ctx, id)
	if err != nil {
		return domain.SoundCommand{}, err
	}

	if update.Name != nil {
		current.Name = *update.Name
	}
	if update.PrettyName != nil {
		current.PrettyName = *update.PrettyName
	}
	if update.Description != nil {
		current.Description = *update.Description
	}
	if update.Emoji != nil {
		current.Emoji = *update.Emoji
	}
	if update.Disabled != nil {
		current.Disabled = *update.Disabled
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sound_commands
		SET name = ?, pretty_name = ?, description = ?, emoji = ?, disabled = ?
		WHERE id = ?`,
		current.Name, current.PrettyName, current.Description, current.Emoji, current.Disabled, id)
	if err != nil {
		return domain.SoundCommand{}, fmt.Errorf("failed to update sound command: %w", err)
	}
	return current, nil
}

// UpdateSound applies a partial update and returns the updated row.
func (s *SQLiteStore) UpdateSound(ctx context.Context, id int64, update SoundUpdate) (domain.Sound, error) {
	current, err := s.GetSound(ctx, id)
	if err != nil {
		return domain.Sound{}, err
	}

	if update.SoundCommandID != nil {
		current.SoundCommandID = *update.SoundCommandID
	}
	if update.Name != nil {
		current.Name = *update.Name
	}
	if update.Emoji != nil {
		current.Emoji = *update.Emoji
	}
	if update.FileReference != nil {
		current.FileReference = *update.FileReference
	}
	if update.Disabled != nil {
		current.Disabled = *update.Disabled
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sounds
		SET sound_command_id = ?, name = ?, emoji = ?, file_reference = ?, disabled = ?
		WHERE id = ?`,
		current.SoundCommandID, current.Name, current.Emoji, current.FileReference, current.Disabled, id)
	if err != nil {
		return domain.Sound{}, fmt.Errorf("failed to update sound: %w", err)
	}
	return current, nil
}

// --- scanning helpers ---

func scanSoundCommand(row *sql.Row) (domain.SoundCommand, error) {
	var cmd domain.SoundCommand
	err := row.Scan(&cmd.ID, &cmd.Name, &cmd.PrettyName, &cmd.Description, &cmd.Emoji, &cmd.Disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SoundCommand{}, ErrNotFound
	}
	if err != nil {
		return domain.SoundCommand{}, fmt.Errorf("failed to get sound command: %w", err)
	}
	return cmd, nil
}

func scanSoundCommands(rows *sql.Rows) ([]domain.SoundCommand, error) {
	var commands []domain.SoundCommand
	for rows.Next() {
		var cmd domain.SoundCommand
		if err := rows.Scan(&cmd.ID, &cmd.Name, &cmd.PrettyName, &cmd.Description, &cmd.Emoji, &cmd.Disabled); err != nil {
			return nil, fmt.Errorf("failed to scan sound command: %w", err)
		}
		commands = append(commands, cmd)
	}
	return commands, rows.Err()
}

func scanSounds(rows *sql.Rows) ([]domain.Sound, error) {
	var sounds []domain.Sound
	for rows.Next() {
		var snd domain.Sound
		if err := rows.Scan(&snd.ID, &snd.SoundCommandID, &snd.Name, &snd.Emoji, &snd.FileReference, &snd.Disabled); err != nil {
			return nil, fmt.Errorf("failed to scan sound: %w", err)
		}
		sounds = append(sounds, snd)
	}
	return sounds, rows.Err()
}

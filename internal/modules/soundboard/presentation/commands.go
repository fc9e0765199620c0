package presentation

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/hornsolutions/hornbot/internal/emoji"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/usecases"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

const (
	playButtonName    = "play_sound"
	playButtonVersion = 1
)

// playButtonID is the versioned payload carried in a play button's custom
// ID. Buttons with an older version are rejected when pressed.
type playButtonID struct {
	Name           string `json:"name"`
	Version        int    `json:"v"`
	SoundCommandID int64  `json:"soundCommandId"`
	SoundID        int64  `json:"soundId"`
}

func encodePlayButtonID(soundCommandID, soundID int64) string {
	raw, _ := json.Marshal(playButtonID{
		Name:           playButtonName,
		Version:        playButtonVersion,
		SoundCommandID: soundCommandID,
		SoundID:        soundID,
	})
	return string(raw)
}

// BuildCommands generates the application command set from the sound
// catalog: one slash command per enabled sound command with a variant
// option, the soundboard command, and the static commands.
func BuildCommands(catalog []usecases.SoundboardOutput) []*discordgo.ApplicationCommand {
	dmPermission := false

	var commands []*discordgo.ApplicationCommand
	var soundboardChoices []*discordgo.ApplicationCommandOptionChoice

	for _, entry := range catalog {
		variantChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(entry.Sounds))
		for _, sound := range entry.Sounds {
			variantChoices = append(variantChoices, &discordgo.ApplicationCommandOptionChoice{
				Name:  sound.Name,
				Value: sound.ID,
			})
		}

		soundboardChoices = append(soundboardChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  entry.Command.PrettyName,
			Value: entry.Command.ID,
		})

		commands = append(commands, &discordgo.ApplicationCommand{
			Name:         entry.Command.Name,
			Description:  fmt.Sprintf("%s: %s", entry.Command.PrettyName, entry.Command.Description),
			DMPermission: &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "variant",
					Description: "Choose the sound variant.",
					Required:    false,
					Choices:     variantChoices,
				},
			},
		})
	}

	commands = append(commands, &discordgo.ApplicationCommand{
		Name:         "soundboard",
		Description:  "Show a soundboard for a specific sound.",
		DMPermission: &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "sound",
				Description: "Choose the sound.",
				Required:    true,
				Choices:     soundboardChoices,
			},
		},
	})

	commands = append(commands,
		&discordgo.ApplicationCommand{
			Name:        "invite",
			Description: "Invite the bot to your server.",
		},
		&discordgo.ApplicationCommand{
			Name:        "stats",
			Description: "View the stats for the bot.",
		},
	)

	return commands
}

// playButton builds a play button for a sound variant.
func playButton(label string, cmd domain.SoundCommand, sound domain.Sound) discordgo.Button {
	button := discordgo.Button{
		Label:    label,
		Style:    discordgo.PrimaryButton,
		CustomID: encodePlayButtonID(sound.SoundCommandID, sound.ID),
	}
	if e := sound.ButtonEmoji(cmd); e != "" {
		button.Emoji = componentEmoji(e)
	}
	return button
}

// componentEmoji converts a stored emoji (custom-emoji ID or unicode
// emoji) into a component emoji.
func componentEmoji(e string) *discordgo.ComponentEmoji {
	if emoji.IsCustomID(e) {
		return &discordgo.ComponentEmoji{ID: e}
	}
	return &discordgo.ComponentEmoji{Name: e}
}

// buttonGrid arranges buttons into action rows of five, capped at the five
// rows a message can hold.
func buttonGrid(buttons []discordgo.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons) && len(rows) < 5; start += 5 {
		end := min(start+5, len(buttons))
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, b)
		}
		rows = append(rows, row)
	}
	return rows
}

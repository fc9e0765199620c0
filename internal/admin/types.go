package admin

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/hornsolutions/hornbot/internal/emoji"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

// commandNamePattern matches valid slash command names: Discord requires
// lowercase with no spaces.
var commandNamePattern = regexp.MustCompile(`^[a-z0-9_-]{2,16}$`)

// namePattern matches display names for commands and variants.
var namePattern = regexp.MustCompile(`^[\w -]{2,16}$`)

type soundCommandResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PrettyName  string `json:"prettyName"`
	Description string `json:"description"`
	Emoji       string `json:"emoji,omitempty"`
	Disabled    bool   `json:"disabled"`
}

type soundResponse struct {
	ID             int64  `json:"id"`
	SoundCommandID int64  `json:"soundCommandId"`
	Name           string `json:"name"`
	Emoji          string `json:"emoji,omitempty"`
	FileReference  string `json:"fileReference"`
	Disabled       bool   `json:"disabled"`
}

func toSoundCommandResponse(cmd domain.SoundCommand) soundCommandResponse {
	return soundCommandResponse{
		ID:          cmd.ID,
		Name:        cmd.Name,
		PrettyName:  cmd.PrettyName,
		Description: cmd.Description,
		Emoji:       cmd.Emoji,
		Disabled:    cmd.Disabled,
	}
}

func toSoundResponse(snd domain.Sound) soundResponse {
	return soundResponse{
		ID:             snd.ID,
		SoundCommandID: snd.SoundCommandID,
		Name:           snd.Name,
		Emoji:          snd.Emoji,
		FileReference:  snd.FileReference,
		Disabled:       snd.Disabled,
	}
}

type createSoundCommandRequest struct {
	Name        string `json:"name"`
	PrettyName  string `json:"prettyName"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Disabled    bool   `json:"disabled"`
}

func (r createSoundCommandRequest) validate() error {
	if !commandNamePattern.MatchString(r.Name) {
		return errors.New("name must be 2-16 lowercase characters")
	}
	if !namePattern.MatchString(r.PrettyName) {
		return errors.New("prettyName must be 2-16 characters")
	}
	if r.Description == "" || len(r.Description) > 100 {
		return errors.New("description must be 1-100 characters")
	}
	if !emoji.Valid(r.Emoji) {
		return errors.New("emoji must be a custom emoji ID or a unicode emoji")
	}
	return nil
}

type updateSoundCommandRequest struct {
	Name        *string `json:"name"`
	PrettyName  *string `json:"prettyName"`
	Description *string `json:"description"`
	Emoji       *string `json:"emoji"`
	Disabled    *bool   `json:"disabled"`
}

func (r updateSoundCommandRequest) validate() error {
	if r.Name != nil && !commandNamePattern.MatchString(*r.Name) {
		return errors.New("name must be 2-16 lowercase characters")
	}
	if r.PrettyName != nil && !namePattern.MatchString(*r.PrettyName) {
		return errors.New("prettyName must be 2-16 characters")
	}
	if r.Description != nil && (*r.Description == "" || len(*r.Description) > 100) {
		return errors.New("description must be 1-100 characters")
	}
	if r.Emoji != nil && !emoji.Valid(*r.Emoji) {
		return errors.New("emoji must be a custom emoji ID or a unicode emoji")
	}
	return nil
}

type createSoundRequest struct {
	SoundCommandID int64  `json:"soundCommandId"`
	Name           string `json:"name"`
	Emoji          string `json:"emoji"`
	FileReference  string `json:"fileReference"`
	Disabled       bool   `json:"disabled"`
}

func (r createSoundRequest) validate() error {
	if r.SoundCommandID <= 0 {
		return errors.New("soundCommandId is required")
	}
	if !namePattern.MatchString(r.Name) {
		return errors.New("name must be 2-16 characters")
	}
	if !emoji.Valid(r.Emoji) {
		return errors.New("emoji must be a custom emoji ID or a unicode emoji")
	}
	return validateFileReference(r.FileReference)
}

type updateSoundRequest struct {
	SoundCommandID *int64  `json:"soundCommandId"`
	Name           *string `json:"name"`
	Emoji          *string `json:"emoji"`
	FileReference  *string `json:"fileReference"`
	Disabled       *bool   `json:"disabled"`
}

func (r updateSoundRequest) validate() error {
	if r.SoundCommandID != nil && *r.SoundCommandID <= 0 {
		return errors.New("soundCommandId must be positive")
	}
	if r.Name != nil && !namePattern.MatchString(*r.Name) {
		return errors.New("name must be 2-16 characters")
	}
	if r.Emoji != nil && !emoji.Valid(*r.Emoji) {
		return errors.New("emoji must be a custom emoji ID or a unicode emoji")
	}
	if r.FileReference != nil {
		return validateFileReference(*r.FileReference)
	}
	return nil
}

// validateFileReference accepts a clip path under the local sounds
// directory or an absolute http(s) URL.
func validateFileReference(ref string) error {
	switch {
	case strings.HasPrefix(ref, "./sounds/"):
		if len(ref) == len("./sounds/") {
			return errors.New("fileReference must name a file")
		}
		return nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		u, err := url.Parse(ref)
		if err != nil || u.Host == "" {
			return errors.New("fileReference must be a valid URL")
		}
		return nil
	}
	return errors.New("fileReference must start with ./sounds/, http://, or https://")
}

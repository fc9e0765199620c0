package usecases

import (
	"context"
	"fmt"

	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/ports"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

// ResolveSoundInput contains the input for the ResolveSound use case.
// VariantID of zero means no explicit variant was requested.
type ResolveSoundInput struct {
	CommandName string
	VariantID   int64
}

// ResolveByIDInput contains the input for the ResolveByID use case, used by
// replay buttons which carry numeric IDs instead of a command name.
type ResolveByIDInput struct {
	SoundCommandID int64
	SoundID        int64
}

// ResolveOutput contains the selected variant and its parent command.
type ResolveOutput struct {
	Command domain.SoundCommand
	Sound   domain.Sound
}

// SoundboardOutput contains the variants to present as a button grid.
type SoundboardOutput struct {
	Command domain.SoundCommand
	Sounds  []domain.Sound
}

// CatalogService resolves sound commands and variants from the catalog.
type CatalogService struct {
	catalog ports.SoundCatalog
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog ports.SoundCatalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// ResolveSound resolves a slash command invocation to a playable variant.
// When no variant is requested, an enabled variant is picked at random.
func (c *CatalogService) ResolveSound(
	ctx context.Context,
	input ResolveSoundInput,
) (*ResolveOutput, error) {
	cmd, err := c.catalog.GetSoundCommandByName(ctx, input.CommandName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSoundCommandNotFound, input.CommandName)
	}
	return c.resolveVariant(ctx, cmd, input.VariantID)
}

// ResolveByID resolves a replay button press to a playable variant.
func (c *CatalogService) ResolveByID(
	ctx context.Context,
	input ResolveByIDInput,
) (*ResolveOutput, error) {
	cmd, err := c.catalog.GetSoundCommand(ctx, input.SoundCommandID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %d", ErrSoundCommandNotFound, input.SoundCommandID)
	}
	return c.resolveVariant(ctx, cmd, input.SoundID)
}

// Soundboard returns the enabled variants of a sound command for display
// as a button grid.
func (c *CatalogService) Soundboard(
	ctx context.Context,
	soundCommandID int64,
) (*SoundboardOutput, error) {
	cmd, err := c.catalog.GetSoundCommand(ctx, soundCommandID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %d", ErrSoundCommandNotFound, soundCommandID)
	}
	if cmd.Disabled {
		return nil, ErrSoundCommandDisabled
	}

	sounds, err := c.catalog.ListEnabledSounds(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if len(sounds) == 0 {
		return nil, ErrNoSounds
	}

	return &SoundboardOutput{Command: cmd, Sounds: sounds}, nil
}

// Commands returns every enabled sound command with its enabled variants,
// for application command registration.
func (c *CatalogService) Commands(
	ctx context.Context,
) ([]SoundboardOutput, error) {
	commands, err := c.catalog.ListEnabledSoundCommands(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SoundboardOutput, 0, len(commands))
	for _, cmd := range commands {
		sounds, err := c.catalog.ListEnabledSounds(ctx, cmd.ID)
		if err != nil {
			return nil, err
		}
		if len(sounds) == 0 {
			continue
		}
		out = append(out, SoundboardOutput{Command: cmd, Sounds: sounds})
	}
	return out, nil
}

func (c *CatalogService) resolveVariant(
	ctx context.Context,
	cmd domain.SoundCommand,
	variantID int64,
) (*ResolveOutput, error) {
	if cmd.Disabled {
		return nil, ErrSoundCommandDisabled
	}

	sounds, err := c.catalog.ListEnabledSounds(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if len(sounds) == 0 {
		return nil, ErrNoSounds
	}

	sound, err := domain.SelectVariant(sounds, variantID)
	if err != nil {
		return nil, err
	}

	return &ResolveOutput{Command: cmd, Sound: sound}, nil
}

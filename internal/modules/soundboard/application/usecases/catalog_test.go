package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

func testCatalog() *mockCatalog {
	return &mockCatalog{
		commands: []domain.SoundCommand{
			{ID: 1, Name: "airhorn", PrettyName: "Airhorn", Description: "The classic."},
			{ID: 2, Name: "wildcard", PrettyName: "Wildcard", Description: "Disabled.", Disabled: true},
			{ID: 3, Name: "empty", PrettyName: "Empty", Description: "No variants."},
		},
		sounds: map[int64][]domain.Sound{
			1: {
				{ID: 10, SoundCommandID: 1, Name: "default", FileReference: "./sounds/airhorn_default.dca"},
				{ID: 11, SoundCommandID: 1, Name: "reverb", FileReference: "./sounds/airhorn_reverb.dca"},
				{ID: 12, SoundCommandID: 1, Name: "broken", FileReference: "./sounds/gone.dca", Disabled: true},
			},
			2: {
				{ID: 20, SoundCommandID: 2, Name: "default", FileReference: "./sounds/wildcard.dca"},
			},
		},
	}
}

func TestCatalogService_ResolveSound(t *testing.T) {
	svc := NewCatalogService(testCatalog())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   ResolveSoundInput
		wantID  int64
		wantErr error
	}{
		{
			name:   "specific variant",
			input:  ResolveSoundInput{CommandName: "airhorn", VariantID: 11},
			wantID: 11,
		},
		{
			name:    "unknown command",
			input:   ResolveSoundInput{CommandName: "nope"},
			wantErr: ErrSoundCommandNotFound,
		},
		{
			name:    "disabled command",
			input:   ResolveSoundInput{CommandName: "wildcard"},
			wantErr: ErrSoundCommandDisabled,
		},
		{
			name:    "command without variants",
			input:   ResolveSoundInput{CommandName: "empty"},
			wantErr: ErrNoSounds,
		},
		{
			name:    "disabled variant requested",
			input:   ResolveSoundInput{CommandName: "airhorn", VariantID: 12},
			wantErr: domain.ErrVariantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.ResolveSound(ctx, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Sound.ID != tt.wantID {
				t.Errorf("expected sound %d, got %d", tt.wantID, out.Sound.ID)
			}
		})
	}
}

func TestCatalogService_ResolveSound_NoVariantPicksEnabled(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	// No variant requested: any enabled variant may come back, never the
	// disabled one.
	for i := 0; i < 20; i++ {
		out, err := svc.ResolveSound(context.Background(), ResolveSoundInput{CommandName: "airhorn"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Sound.ID != 10 && out.Sound.ID != 11 {
			t.Fatalf("expected an enabled variant, got %d", out.Sound.ID)
		}
	}
}

func TestCatalogService_ResolveByID(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	out, err := svc.ResolveByID(context.Background(), ResolveByIDInput{
		SoundCommandID: 1,
		SoundID:        10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Command.Name != "airhorn" || out.Sound.ID != 10 {
		t.Errorf("unexpected resolution: %+v", out)
	}

	_, err = svc.ResolveByID(context.Background(), ResolveByIDInput{SoundCommandID: 99, SoundID: 1})
	if !errors.Is(err, ErrSoundCommandNotFound) {
		t.Errorf("expected ErrSoundCommandNotFound, got %v", err)
	}
}

func TestCatalogService_Soundboard(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	board, err := svc.Soundboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board.Sounds) != 2 {
		t.Errorf("expected 2 enabled variants, got %d", len(board.Sounds))
	}

	if _, err := svc.Soundboard(context.Background(), 2); !errors.Is(err, ErrSoundCommandDisabled) {
		t.Errorf("expected ErrSoundCommandDisabled, got %v", err)
	}
	if _, err := svc.Soundboard(context.Background(), 3); !errors.Is(err, ErrNoSounds) {
		t.Errorf("expected ErrNoSounds, got %v", err)
	}
}

func TestCatalogService_Commands_SkipsUnusableEntries(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	entries, err := svc.Commands(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The disabled command and the variant-less command are excluded
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Command.Name != "airhorn" {
		t.Errorf("expected airhorn, got %q", entries[0].Command.Name)
	}
	if len(entries[0].Sounds) != 2 {
		t.Errorf("expected 2 variants, got %d", len(entries[0].Sounds))
	}
}

// Package admin exposes the catalog administration HTTP API. It runs as a
// separate process from the bot and shares the same SQLite database.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/usecases"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/infrastructure"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/presentation"
)

// pageSize is the fixed page size for list endpoints.
const pageSize = 10

// CommandRegistrar replaces the bot's global application command set.
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Catalog is the store surface the admin API needs.
type Catalog interface {
	ListSoundCommands(ctx context.Context, limit, offset int) ([]domain.SoundCommand, error)
	GetSoundCommand(ctx context.Context, id int64) (domain.SoundCommand, error)
	GetSoundCommandByName(ctx context.Context, name string) (domain.SoundCommand, error)
	CreateSoundCommand(ctx context.Context, cmd domain.SoundCommand) (domain.SoundCommand, error)
	UpdateSoundCommand(ctx context.Context, id int64, update infrastructure.SoundCommandUpdate) (domain.SoundCommand, error)

	ListSounds(ctx context.Context, limit, offset int) ([]domain.Sound, error)
	GetSound(ctx context.Context, id int64) (domain.Sound, error)
	GetSoundByName(ctx context.Context, soundCommandID int64, name string) (domain.Sound, error)
	CreateSound(ctx context.Context, snd domain.Sound) (domain.Sound, error)
	UpdateSound(ctx context.Context, id int64, update infrastructure.SoundUpdate) (domain.Sound, error)

	ListEnabledSoundCommands(ctx context.Context) ([]domain.SoundCommand, error)
	ListEnabledSounds(ctx context.Context, soundCommandID int64) ([]domain.Sound, error)

	TotalUsage(ctx context.Context) (int64, error)
}

// Server is the admin HTTP server.
type Server struct {
	echo      *echo.Echo
	catalog   Catalog
	registrar CommandRegistrar
	appID     string
}

// NewServer creates a Server and mounts its routes. registrar may be nil,
// in which case command registration returns 503.
func NewServer(catalog Catalog, registrar CommandRegistrar, appID string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("handled request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	s := &Server{
		echo:      e,
		catalog:   catalog,
		registrar: registrar,
		appID:     appID,
	}

	api := e.Group("/api/admin")
	api.GET("/sound-commands", s.listSoundCommands)
	api.POST("/sound-commands", s.createSoundCommand)
	api.GET("/sound-commands/:id", s.getSoundCommand)
	api.PATCH("/sound-commands/:id", s.updateSoundCommand)

	api.GET("/sounds", s.listSounds)
	api.POST("/sounds", s.createSound)
	api.GET("/sounds/:id", s.getSound)
	api.PATCH("/sounds/:id", s.updateSound)

	api.POST("/register-commands", s.registerCommands)
	api.GET("/stats", s.stats)

	return s
}

// Start begins serving on the given address. It blocks until the server
// stops.
func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// --- sound commands ---

func (s *Server) listSoundCommands(c echo.Context) error {
	offset := pageOffset(c)
	commands, err := s.catalog.ListSoundCommands(c.Request().Context(), pageSize, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sound commands")
	}
	out := make([]soundCommandResponse, 0, len(commands))
	for _, cmd := range commands {
		out = append(out, toSoundCommandResponse(cmd))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSoundCommand(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cmd, err := s.catalog.GetSoundCommand(c.Request().Context(), id)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "sound command not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get sound command")
	}
	return c.JSON(http.StatusOK, toSoundCommandResponse(cmd))
}

func (s *Server) createSoundCommand(c echo.Context) error {
	var req createSoundCommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if _, err := s.catalog.GetSoundCommandByName(ctx, req.Name); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "a sound command with that name already exists")
	}

	cmd, err := s.catalog.CreateSoundCommand(ctx, domain.SoundCommand{
		Name:        req.Name,
		PrettyName:  req.PrettyName,
		Description: req.Description,
		Emoji:       req.Emoji,
		Disabled:    req.Disabled,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create sound command")
	}
	return c.JSON(http.StatusCreated, toSoundCommandResponse(cmd))
}

func (s *Server) updateSoundCommand(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateSoundCommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if req.Name != nil {
		existing, err := s.catalog.GetSoundCommandByName(ctx, *req.Name)
		if err == nil && existing.ID != id {
			return echo.NewHTTPError(http.StatusConflict, "a sound command with that name already exists")
		}
	}

	cmd, err := s.catalog.UpdateSoundCommand(ctx, id, infrastructure.SoundCommandUpdate{
		Name:        req.Name,
		PrettyName:  req.PrettyName,
		Description: req.Description,
		Emoji:       req.Emoji,
		Disabled:    req.Disabled,
	})
	if errors.Is(err, infrastructure.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "sound command not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update sound command")
	}
	return c.JSON(http.StatusOK, toSoundCommandResponse(cmd))
}

// --- sounds ---

func (s *Server) listSounds(c echo.Context) error {
	offset := pageOffset(c)
	sounds, err := s.catalog.ListSounds(c.Request().Context(), pageSize, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sounds")
	}
	out := make([]soundResponse, 0, len(sounds))
	for _, snd := range sounds {
		out = append(out, toSoundResponse(snd))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSound(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	snd, err := s.catalog.GetSound(c.Request().Context(), id)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "sound not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get sound")
	}
	return c.JSON(http.StatusOK, toSoundResponse(snd))
}

func (s *Server) createSound(c echo.Context) error {
	var req createSoundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if _, err := s.catalog.GetSoundCommand(ctx, req.SoundCommandID); err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "sound command does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to verify sound command")
	}
	if _, err := s.catalog.GetSoundByName(ctx, req.SoundCommandID, req.Name); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "a sound with that name already exists for the command")
	}

	snd, err := s.catalog.CreateSound(ctx, domain.Sound{
		SoundCommandID: req.SoundCommandID,
		Name:           req.Name,
		Emoji:          req.Emoji,
		FileReference:  req.FileReference,
		Disabled:       req.Disabled,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create sound")
	}
	return c.JSON(http.StatusCreated, toSoundResponse(snd))
}

func (s *Server) updateSound(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateSoundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snd, err := s.catalog.UpdateSound(c.Request().Context(), id, infrastructure.SoundUpdate{
		SoundCommandID: req.SoundCommandID,
		Name:           req.Name,
		Emoji:          req.Emoji,
		FileReference:  req.FileReference,
		Disabled:       req.Disabled,
	})
	if errors.Is(err, infrastructure.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "sound not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update sound")
	}
	return c.JSON(http.StatusOK, toSoundResponse(snd))
}

// --- commands and stats ---

// registerCommands regenerates the bot's application command set from the
// current catalog. The catalog changes take effect on Discord only after
// this is called.
func (s *Server) registerCommands(c echo.Context) error {
	if s.registrar == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "command registration is not configured")
	}

	ctx := c.Request().Context()
	commands, err := s.catalog.ListEnabledSoundCommands(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read catalog")
	}

	var entries []usecases.SoundboardOutput
	for _, cmd := range commands {
		sounds, err := s.catalog.ListEnabledSounds(ctx, cmd.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to read catalog")
		}
		if len(sounds) == 0 {
			continue
		}
		entries = append(entries, usecases.SoundboardOutput{Command: cmd, Sounds: sounds})
	}

	built := presentation.BuildCommands(entries)
	registered, err := s.registrar.ApplicationCommandBulkOverwrite(s.appID, "", built)
	if err != nil {
		slog.Error("failed to register commands", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to register commands with Discord")
	}

	return c.JSON(http.StatusOK, map[string]int{"registered": len(registered)})
}

func (s *Server) stats(c echo.Context) error {
	total, err := s.catalog.TotalUsage(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read stats")
	}
	return c.JSON(http.StatusOK, map[string]int64{"total": total})
}

// --- helpers ---

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func pageOffset(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 0 {
		page = 0
	}
	return page * pageSize
}

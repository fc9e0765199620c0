package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/ports"
)

// StatsSummaryInput contains the input for the Summary use case. GuildID of
// zero means the invocation happened outside a guild.
type StatsSummaryInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// StatsSummaryOutput contains aggregate playback counts. GuildTotal is nil
// when no guild scope was requested.
type StatsSummaryOutput struct {
	Total      int64
	GuildTotal *int64
	UserTotal  int64
}

// StatsService reads aggregate usage counters.
type StatsService struct {
	stats ports.UsageStats
}

// NewStatsService creates a new StatsService.
func NewStatsService(stats ports.UsageStats) *StatsService {
	return &StatsService{stats: stats}
}

// Summary returns global, guild and requester playback totals.
func (s *StatsService) Summary(
	ctx context.Context,
	input StatsSummaryInput,
) (*StatsSummaryOutput, error) {
	total, err := s.stats.TotalUsage(ctx)
	if err != nil {
		return nil, err
	}

	out := &StatsSummaryOutput{Total: total}

	if input.GuildID != 0 {
		guildTotal, err := s.stats.GuildUsage(ctx, input.GuildID)
		if err != nil {
			return nil, err
		}
		out.GuildTotal = &guildTotal
	}

	userTotal, err := s.stats.UserUsage(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	out.UserTotal = userTotal

	return out, nil
}

// Package handlers provides the HTTP operations of the scraper API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/lnp-scraper/internal/logging"
	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/upstream"
)

// Competition is the data service behind the competition endpoints.
type Competition interface {
	Seasons(ctx context.Context, p models.Partition) ([]models.Season, error)
	Leagues(ctx context.Context, p models.Partition, seasonID string) ([]models.League, error)
	Plays(ctx context.Context, p models.Partition, seasonID, leagueID string) ([]models.Play, error)
	Teams(ctx context.Context, p models.Partition, playID string) ([]models.Team, error)
	Players(ctx context.Context, p models.Partition, teamID string) ([]models.Player, error)
	PlayerStats(ctx context.Context, p models.Partition, playerID, seasonID, leagueID string) (any, error)
	StatsBatch(ctx context.Context, p models.Partition, req models.StatsBatchRequest) (map[string]upstream.StatsEntry, error)
}

// CompetitionHandler serves seasons, leagues, plays, teams, players and statistics.
type CompetitionHandler struct {
	svc    Competition
	logger *slog.Logger
}

// NewCompetitionHandler creates a new competition handler.
func NewCompetitionHandler(svc Competition, logger *slog.Logger) *CompetitionHandler {
	return &CompetitionHandler{svc: svc, logger: logger}
}

// SeasonsInput is the input for listing seasons.
type SeasonsInput struct {
	Sex string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
}

// SeasonsOutput is the list of seasons.
type SeasonsOutput struct {
	Body []models.Season
}

// LeaguesInput is the input for listing leagues.
type LeaguesInput struct {
	Sex      string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
	SeasonID string `query:"seasonId" doc:"Season UUID"`
}

// LeaguesOutput is the flattened list of leagues.
type LeaguesOutput struct {
	Body []models.League
}

// PlaysInput is the input for listing play dictionaries.
type PlaysInput struct {
	Sex      string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
	SeasonID string `query:"seasonId" doc:"Season UUID"`
	LeagueID string `query:"leagueId" doc:"League UUID"`
}

// PlaysOutput is the list of plays.
type PlaysOutput struct {
	Body []models.Play
}

// TeamsInput is the input for team discovery. Only playId is used.
type TeamsInput struct {
	Sex      string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
	SeasonID string `query:"seasonId" doc:"Season UUID (informational)"`
	LeagueID string `query:"leagueId" doc:"League UUID (informational)"`
	PlayID   string `query:"playId" doc:"Play UUID"`
}

// TeamsOutput is the list of discovered teams.
type TeamsOutput struct {
	Body []models.Team
}

// PlayersInput is the input for listing a team's players.
type PlayersInput struct {
	Sex    string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
	TeamID string `query:"teamId" required:"true" doc:"Team UUID"`
}

// PlayersOutput is the list of players.
type PlayersOutput struct {
	Body []models.Player
}

// PlayerStatsInput is the input for one player's statistics.
type PlayerStatsInput struct {
	Sex      string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
	PlayerID string `path:"playerId" doc:"Player UUID"`
	SeasonID string `path:"seasonId" doc:"Season UUID"`
	LeagueID string `path:"leagueId" doc:"League UUID"`
}

// PlayerStatsOutput is the raw upstream statistics document.
type PlayerStatsOutput struct {
	Body any
}

// StatsBatchInput is the input for batch statistics.
type StatsBatchInput struct {
	Sex  string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
	Body models.StatsBatchRequest
}

// StatsBatchOutput maps player ids to their statistics.
type StatsBatchOutput struct {
	Body map[string]upstream.StatsEntry
}

// Register adds the competition operations to api.
func (h *CompetitionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listSeasons",
		Method:      http.MethodGet,
		Path:        "/seasons",
		Summary:     "List seasons",
		Tags:        []string{"Competition"},
	}, h.Seasons)

	huma.Register(api, huma.Operation{
		OperationID: "listLeagues",
		Method:      http.MethodGet,
		Path:        "/leagues",
		Summary:     "List leagues of a season",
		Tags:        []string{"Competition"},
	}, h.Leagues)

	huma.Register(api, huma.Operation{
		OperationID: "listPlays",
		Method:      http.MethodGet,
		Path:        "/plays",
		Summary:     "List plays of a league season",
		Tags:        []string{"Competition"},
	}, h.Plays)

	huma.Register(api, huma.Operation{
		OperationID: "listTeams",
		Method:      http.MethodGet,
		Path:        "/teams",
		Summary:     "Discover the teams of a play",
		Description: "Reads the play's tables, falling back to queue-specific tables when the default one is empty.",
		Tags:        []string{"Competition"},
	}, h.Teams)

	huma.Register(api, huma.Operation{
		OperationID: "listPlayers",
		Method:      http.MethodGet,
		Path:        "/players",
		Summary:     "List a team's players",
		Tags:        []string{"Competition"},
	}, h.Players)

	huma.Register(api, huma.Operation{
		OperationID: "getPlayerStats",
		Method:      http.MethodGet,
		Path:        "/players/{playerId}/seasons/{seasonId}/leagues/{leagueId}/stats",
		Summary:     "Get a player's statistics",
		Tags:        []string{"Statistics"},
	}, h.PlayerStats)

	huma.Register(api, huma.Operation{
		OperationID: "batchPlayerStats",
		Method:      http.MethodPost,
		Path:        "/player-stats/batch",
		Summary:     "Get statistics for many players",
		Description: "Fetches each valid player id concurrently. Failed fetches yield null stats.",
		Tags:        []string{"Statistics"},
	}, h.StatsBatch)
}

// Seasons lists the season dictionary.
func (h *CompetitionHandler) Seasons(ctx context.Context, input *SeasonsInput) (*SeasonsOutput, error) {
	out, err := h.svc.Seasons(ctx, models.Partition(input.Sex))
	if err != nil {
		return nil, h.fail(ctx, "seasons", err)
	}
	return &SeasonsOutput{Body: out}, nil
}

// Leagues lists the leagues of a season.
func (h *CompetitionHandler) Leagues(ctx context.Context, input *LeaguesInput) (*LeaguesOutput, error) {
	out, err := h.svc.Leagues(ctx, models.Partition(input.Sex), input.SeasonID)
	if err != nil {
		return nil, h.fail(ctx, "leagues", err)
	}
	return &LeaguesOutput{Body: out}, nil
}

// Plays lists the plays of a league season.
func (h *CompetitionHandler) Plays(ctx context.Context, input *PlaysInput) (*PlaysOutput, error) {
	out, err := h.svc.Plays(ctx, models.Partition(input.Sex), input.SeasonID, input.LeagueID)
	if err != nil {
		return nil, h.fail(ctx, "plays", err)
	}
	return &PlaysOutput{Body: out}, nil
}

// Teams discovers the teams of a play.
func (h *CompetitionHandler) Teams(ctx context.Context, input *TeamsInput) (*TeamsOutput, error) {
	out, err := h.svc.Teams(ctx, models.Partition(input.Sex), input.PlayID)
	if err != nil {
		return nil, h.fail(ctx, "teams", err)
	}
	return &TeamsOutput{Body: out}, nil
}

// Players lists a team's players.
func (h *CompetitionHandler) Players(ctx context.Context, input *PlayersInput) (*PlayersOutput, error) {
	out, err := h.svc.Players(ctx, models.Partition(input.Sex), input.TeamID)
	if err != nil {
		return nil, h.fail(ctx, "players", err)
	}
	return &PlayersOutput{Body: out}, nil
}

// PlayerStats returns one player's raw statistics.
func (h *CompetitionHandler) PlayerStats(ctx context.Context, input *PlayerStatsInput) (*PlayerStatsOutput, error) {
	out, err := h.svc.PlayerStats(ctx, models.Partition(input.Sex), input.PlayerID, input.SeasonID, input.LeagueID)
	if err != nil {
		return nil, h.fail(ctx, "player stats", err)
	}
	return &PlayerStatsOutput{Body: out}, nil
}

// StatsBatch returns statistics for many players.
func (h *CompetitionHandler) StatsBatch(ctx context.Context, input *StatsBatchInput) (*StatsBatchOutput, error) {
	out, err := h.svc.StatsBatch(ctx, models.Partition(input.Sex), input.Body)
	if err != nil {
		return nil, h.fail(ctx, "stats batch", err)
	}
	return &StatsBatchOutput{Body: out}, nil
}

func (h *CompetitionHandler) fail(ctx context.Context, op string, err error) error {
	mapped := httpError(err)
	var se huma.StatusError
	if errors.As(mapped, &se) && se.GetStatus() >= http.StatusInternalServerError {
		logging.FromContext(ctx, h.logger).Warn("request failed", "op", op, "error", err)
	} else {
		logging.FromContext(ctx, h.logger).Debug("request rejected", "op", op, "error", err)
	}
	return mapped
}

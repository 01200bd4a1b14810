// Package service exposes the competition data operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/lnp-scraper/internal/ids"
	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/normalize"
	"github.com/jmylchreest/lnp-scraper/internal/upstream"
)

// ErrTeamsNotFound is returned when no table of a play yields any team.
var ErrTeamsNotFound = errors.New("cannot discover teams table for this play")

// Fetcher performs authenticated reads against the competition API.
type Fetcher interface {
	GetJSON(ctx context.Context, p models.Partition, path string) (any, error)
	GetManyJSON(ctx context.Context, p models.Partition, seasonID, leagueID string, playerIDs []string) (map[string]upstream.StatsEntry, error)
}

// CompetitionService validates identifiers, calls the upstream API and normalizes
// the responses.
type CompetitionService struct {
	fetch  Fetcher
	logger *slog.Logger
}

// New creates a CompetitionService.
func New(fetch Fetcher, logger *slog.Logger) *CompetitionService {
	return &CompetitionService{fetch: fetch, logger: logger}
}

// Seasons lists the season dictionary.
func (s *CompetitionService) Seasons(ctx context.Context, p models.Partition) ([]models.Season, error) {
	data, err := s.fetch.GetJSON(ctx, p, "/seasons/dictionaries")
	if err != nil {
		return nil, err
	}
	return normalize.Seasons(data), nil
}

// Leagues lists the leagues of a season for the partition's sex.
func (s *CompetitionService) Leagues(ctx context.Context, p models.Partition, seasonID string) ([]models.League, error) {
	if err := ids.Validate("seasonId", seasonID); err != nil {
		return nil, err
	}
	data, err := s.fetch.GetJSON(ctx, p, fmt.Sprintf("/leagues/seasons/%s/sexes/%s/league-groups", seasonID, p))
	if err != nil {
		return nil, err
	}
	return normalize.LeagueGroups(data), nil
}

// Plays lists the play dictionaries of a league season.
func (s *CompetitionService) Plays(ctx context.Context, p models.Partition, seasonID, leagueID string) ([]models.Play, error) {
	if err := ids.Validate("seasonId", seasonID); err != nil {
		return nil, err
	}
	if err := ids.Validate("leagueId", leagueID); err != nil {
		return nil, err
	}
	data, err := s.fetch.GetJSON(ctx, p, fmt.Sprintf("/leagues/%s/seasons/%s/play-dictionaries", leagueID, seasonID))
	if err != nil {
		return nil, err
	}
	return normalize.PlayDictionaries(data), nil
}

// Teams discovers the teams of a play from its tables. When the default table
// has none, up to normalize.MaxQueues queue-specific tables are tried in turn.
// Failures while probing queues are logged and skipped.
func (s *CompetitionService) Teams(ctx context.Context, p models.Partition, playID string) ([]models.Team, error) {
	if err := ids.Validate("playId", playID); err != nil {
		return nil, err
	}

	payload, err := s.fetch.GetJSON(ctx, p, fmt.Sprintf("/plays/%s/tables", playID))
	if err != nil {
		return nil, err
	}
	if teams := normalize.Teams(payload); len(teams) > 0 {
		return teams, nil
	}

	logger := s.logger.With("partition", p, "play_id", playID)

	queues, err := s.fetch.GetJSON(ctx, p, fmt.Sprintf("/plays/%s/queues", playID))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("queue discovery failed", "error", err)
		return nil, ErrTeamsNotFound
	}

	for _, qid := range normalize.QueueIDs(queues) {
		payload, err := s.fetch.GetJSON(ctx, p, fmt.Sprintf("/plays/%s/tables?queue=%s", playID, qid))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("queue table failed", "queue_id", qid, "error", err)
			continue
		}
		if teams := normalize.Teams(payload); len(teams) > 0 {
			logger.Debug("teams found in queue table", "queue_id", qid, "count", len(teams))
			return teams, nil
		}
	}

	return nil, ErrTeamsNotFound
}

// Players lists a team's squad.
func (s *CompetitionService) Players(ctx context.Context, p models.Partition, teamID string) ([]models.Player, error) {
	if err := ids.Validate("teamId", teamID); err != nil {
		return nil, err
	}
	data, err := s.fetch.GetJSON(ctx, p, fmt.Sprintf("/teams/%s/players", teamID))
	if err != nil {
		return nil, err
	}
	return normalize.Players(data), nil
}

// PlayerStats returns one player's raw statistics for a league season.
func (s *CompetitionService) PlayerStats(ctx context.Context, p models.Partition, playerID, seasonID, leagueID string) (any, error) {
	if err := ids.Validate("playerId", playerID); err != nil {
		return nil, err
	}
	if err := ids.Validate("seasonId", seasonID); err != nil {
		return nil, err
	}
	if err := ids.Validate("leagueId", leagueID); err != nil {
		return nil, err
	}
	return s.fetch.GetJSON(ctx, p, upstream.StatsPath(playerID, seasonID, leagueID))
}

// StatsBatch fetches statistics for many players of one league season.
func (s *CompetitionService) StatsBatch(ctx context.Context, p models.Partition, req models.StatsBatchRequest) (map[string]upstream.StatsEntry, error) {
	return s.fetch.GetManyJSON(ctx, p, req.SeasonID, req.LeagueID, req.Players)
}

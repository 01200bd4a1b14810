package upstream

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/lnp-scraper/internal/ids"
	"github.com/jmylchreest/lnp-scraper/internal/models"
)

// StatsEntry is one player's result in a batch. Stats is nil when the fetch failed.
type StatsEntry struct {
	Stats    any    `json:"stats"`
	LeagueID string `json:"leagueId"`
}

// StatsPath is the upstream path of one player's season/league statistics.
func StatsPath(playerID, seasonID, leagueID string) string {
	return fmt.Sprintf("/players/%s/seasons/%s/leagues/%s/stats", playerID, seasonID, leagueID)
}

// GetManyJSON fetches statistics for every valid player id with bounded concurrency.
// Malformed player ids are dropped. A failed fetch yields a nil Stats entry
// and never fails the batch.
func (c *Client) GetManyJSON(ctx context.Context, p models.Partition, seasonID, leagueID string, playerIDs []string) (map[string]StatsEntry, error) {
	if err := ids.Validate("seasonId", seasonID); err != nil {
		return nil, err
	}
	if err := ids.Validate("leagueId", leagueID); err != nil {
		return nil, err
	}

	valid := ids.FilterValid(playerIDs)
	out := make(map[string]StatsEntry, len(valid))
	if len(valid) == 0 {
		return out, nil
	}

	var (
		mu   sync.Mutex
		g    errgroup.Group
		seen = make(map[string]struct{}, len(valid))
	)
	g.SetLimit(c.concurrency)

	for _, id := range valid {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			entry := StatsEntry{LeagueID: leagueID}
			stats, err := c.GetJSON(ctx, p, StatsPath(id, seasonID, leagueID))
			if err != nil {
				c.logger.Debug("player stats failed", "partition", p, "player_id", id, "error", err)
			} else {
				entry.Stats = stats
			}

			mu.Lock()
			out[id] = entry
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return out, nil
}

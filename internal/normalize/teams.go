package normalize

import (
	"strings"

	"github.com/jmylchreest/lnp-scraper/internal/ids"
	"github.com/jmylchreest/lnp-scraper/internal/models"
)

// MaxQueues bounds how many queue ids are probed for a play's tables.
const MaxQueues = 6

// teamRefs are the nested objects that may describe the team of a table row.
var teamRefs = []string{"team", "club", "teamDto", "clubDto"}

// Teams walks a tables payload of arbitrary depth and collects every team it can
// identify, either from flat teamId/teamName fields or from a nested team object.
// Team ids must be UUIDs. The first occurrence of each id wins.
func Teams(payload any) []models.Team {
	c := &teamCollector{seen: make(map[string]struct{})}
	c.scan(payload)
	return c.teams
}

type teamCollector struct {
	teams []models.Team
	seen  map[string]struct{}
}

func (c *teamCollector) scan(v any) {
	switch t := v.(type) {
	case map[string]any:
		points := firstPresent(t, "points", "pts")

		if id := first(t, "teamId", "team_id"); id != nil {
			if name := first(t, "teamName", "team_name"); name != nil {
				c.add(id, name, points)
			}
		}

		for _, key := range teamRefs {
			sub, ok := t[key].(map[string]any)
			if !ok {
				continue
			}
			c.add(
				first(sub, "id", "teamId", "clubId"),
				first(sub, "name", "teamName", "clubName", "shortName"),
				points,
			)
		}

		for _, k := range sortedKeys(t) {
			c.scan(t[k])
		}

	case []any:
		for _, it := range t {
			c.scan(it)
		}
	}
}

func (c *teamCollector) add(id, name, points any) {
	teamID, ok := id.(string)
	if !ok || !ids.Valid(teamID) {
		return
	}
	teamName, ok := name.(string)
	if !ok || strings.TrimSpace(teamName) == "" {
		return
	}
	if _, dup := c.seen[teamID]; dup {
		return
	}
	c.seen[teamID] = struct{}{}
	c.teams = append(c.teams, models.Team{Team: strings.TrimSpace(teamName), TeamID: teamID, Points: points})
}

// QueueIDs finds queue identifiers in a queues payload: UUID values under a key
// containing "queue" or equal to "id" (case-insensitive). Results are deduplicated
// in discovery order and capped at MaxQueues.
func QueueIDs(payload any) []string {
	var out []string
	seen := make(map[string]struct{})

	var scan func(v any)
	scan = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			for _, k := range sortedKeys(t) {
				val := t[k]
				if s, ok := val.(string); ok && ids.Valid(s) {
					lk := strings.ToLower(k)
					if strings.Contains(lk, "queue") || lk == "id" {
						if _, dup := seen[s]; !dup {
							seen[s] = struct{}{}
							out = append(out, s)
						}
					}
				}
				scan(val)
			}
		case []any:
			for _, it := range t {
				scan(it)
			}
		}
	}
	scan(payload)

	if len(out) > MaxQueues {
		out = out[:MaxQueues]
	}
	return out
}

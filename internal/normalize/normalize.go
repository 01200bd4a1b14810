// Package normalize reshapes decoded competition API payloads into the flat
// records served by the HTTP API. All functions are pure and tolerate any shape:
// unexpected input yields an empty result, never an error.
//
// Field fallbacks follow truthiness: a present but empty value (zero, "", empty
// list or object, false) falls through to the next candidate key.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/lnp-scraper/internal/models"
)

// Seasons normalizes the season dictionary.
func Seasons(data any) []models.Season {
	items := listUnder(data, "seasons", "items", "data", "result")

	out := make([]models.Season, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		id := first(obj, "id", "seasonId")
		name := firstString(obj, "name", "seasonName")
		if id == nil || name == "" {
			continue
		}

		current, hasKey := obj["isCurrent"]
		if !hasKey {
			current = obj["current"]
		}
		out = append(out, models.Season{ID: id, Name: name, IsCurrent: truthy(current)})
	}
	return out
}

// LeagueGroups flattens league groups into one record per league, deduplicated by league id.
func LeagueGroups(data any) []models.League {
	groups := listUnder(data, "items", "data", "result", "leagueGroups", "groups")

	out := make([]models.League, 0)
	seen := make(map[string]struct{})
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		groupName := firstString(group, "name", "groupName", "title")

		for _, l := range elements(first(group, "leagues", "items")) {
			league, ok := l.(map[string]any)
			if !ok {
				continue
			}
			id := first(league, "id", "leagueId")
			name := firstString(league, "name", "leagueName", "title")
			if id == nil || name == "" {
				continue
			}
			key := identity(id)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, models.League{Group: groupName, League: name, LeagueID: id})
		}
	}
	return out
}

// PlayDictionaries normalizes the plays of a league season.
func PlayDictionaries(data any) []models.Play {
	items := listUnder(data, "items", "data", "result", "playDictionaries", "plays")

	out := make([]models.Play, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		id := first(obj, "id", "playDictionaryId", "playId")
		name := firstString(obj, "name", "title")
		if id == nil || name == "" {
			continue
		}
		out = append(out, models.Play{ID: id, Name: name})
	}
	return out
}

// Players normalizes a team squad.
func Players(data any) []models.Player {
	items := listUnder(data, "items", "data", "result", "players")

	out := make([]models.Player, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		p := models.Player{
			PlayerID:  first(obj, "id", "playerId"),
			FirstName: firstString(obj, "firstName", "firstname"),
			LastName:  firstString(obj, "lastName", "lastname"),
			Number:    first(obj, "number", "shirtNumber"),
			Position:  first(obj, "position", "pos"),
		}
		if name, _ := obj["name"].(string); strings.TrimSpace(name) != "" {
			trimmed := strings.TrimSpace(name)
			p.Name = &trimmed
		}
		if club := firstString(obj, "clubName", "teamName"); club != "" {
			p.Club = &club
		}
		out = append(out, p)
	}
	return out
}

// listUnder returns data itself when it is a list, otherwise the first list
// found under one of keys.
func listUnder(data any, keys ...string) []any {
	switch v := data.(type) {
	case []any:
		return v
	case map[string]any:
		for _, k := range keys {
			if list, ok := v[k].([]any); ok {
				return list
			}
		}
	}
	return nil
}

// elements returns a list as is and an object's values in key order.
func elements(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		out := make([]any, 0, len(t))
		for _, k := range sortedKeys(t) {
			out = append(out, t[k])
		}
		return out
	}
	return nil
}

// first returns the first truthy value under keys, or nil.
func first(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := obj[k]; truthy(v) {
			return v
		}
	}
	return nil
}

// firstString is first restricted to non-empty strings.
func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstPresent returns the first non-null value under keys, or nil.
func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := obj[k]; v != nil {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// identity is a comparable key for a decoded JSON scalar.
func identity(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

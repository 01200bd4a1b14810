package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/jmylchreest/lnp-scraper/internal/ids"
	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/upstream"
)

const (
	seasonID = "11111111-1111-4111-8111-111111111111"
	leagueID = "22222222-2222-4222-8222-222222222222"
	playID   = "33333333-3333-4333-8333-333333333333"
	teamID   = "44444444-4444-4444-8444-444444444444"
	playerID = "55555555-5555-4555-8555-555555555555"
	queue1   = "66666666-6666-4666-8666-666666666661"
	queue2   = "66666666-6666-4666-8666-666666666662"
)

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]any
	errs      map[string]error
	calls     []string
	batch     models.StatsBatchRequest
}

func (f *fakeFetcher) GetJSON(_ context.Context, p models.Partition, path string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, string(p)+" "+path)
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	return f.responses[path], nil
}

func (f *fakeFetcher) GetManyJSON(_ context.Context, _ models.Partition, seasonID, leagueID string, playerIDs []string) (map[string]upstream.StatsEntry, error) {
	f.batch = models.StatsBatchRequest{SeasonID: seasonID, LeagueID: leagueID, Players: playerIDs}
	return map[string]upstream.StatsEntry{}, nil
}

func newTestService(f *fakeFetcher) *CompetitionService {
	return New(f, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func team(id, name string) map[string]any {
	return map[string]any{"teamId": id, "teamName": name}
}

func TestPaths(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{}
	s := newTestService(f)

	s.Seasons(ctx, models.Female)
	s.Leagues(ctx, models.Female, seasonID)
	s.Plays(ctx, models.Male, seasonID, leagueID)
	s.Players(ctx, models.Male, teamID)
	s.PlayerStats(ctx, models.Male, playerID, seasonID, leagueID)

	want := []string{
		"Female /seasons/dictionaries",
		"Female /leagues/seasons/" + seasonID + "/sexes/Female/league-groups",
		"Male /leagues/" + leagueID + "/seasons/" + seasonID + "/play-dictionaries",
		"Male /teams/" + teamID + "/players",
		"Male /players/" + playerID + "/seasons/" + seasonID + "/leagues/" + leagueID + "/stats",
	}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, f.calls[i], want[i])
		}
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{}
	s := newTestService(f)

	tests := []struct {
		name  string
		field string
		call  func() error
	}{
		{"leagues", "seasonId", func() error { _, err := s.Leagues(ctx, models.Male, "x"); return err }},
		{"plays season", "seasonId", func() error { _, err := s.Plays(ctx, models.Male, "x", leagueID); return err }},
		{"plays league", "leagueId", func() error { _, err := s.Plays(ctx, models.Male, seasonID, "x"); return err }},
		{"teams", "playId", func() error { _, err := s.Teams(ctx, models.Male, "x"); return err }},
		{"players", "teamId", func() error { _, err := s.Players(ctx, models.Male, ""); return err }},
		{"stats player", "playerId", func() error { _, err := s.PlayerStats(ctx, models.Male, "x", "y", "z"); return err }},
		{"stats season", "seasonId", func() error { _, err := s.PlayerStats(ctx, models.Male, playerID, "y", "z"); return err }},
		{"stats league", "leagueId", func() error { _, err := s.PlayerStats(ctx, models.Male, playerID, seasonID, "z"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var verr *ids.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ids.ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}

	if len(f.calls) != 0 {
		t.Errorf("upstream called %d times for invalid input", len(f.calls))
	}
}

func TestTeams(t *testing.T) {
	ctx := context.Background()
	tables := "/plays/" + playID + "/tables"
	queues := "/plays/" + playID + "/queues"

	t.Run("default table", func(t *testing.T) {
		f := &fakeFetcher{responses: map[string]any{
			tables: []any{team(teamID, "Lech")},
		}}
		got, err := newTestService(f).Teams(ctx, models.Male, playID)
		if err != nil {
			t.Fatalf("Teams() error = %v", err)
		}
		if len(got) != 1 || got[0].TeamID != teamID {
			t.Errorf("Teams() = %+v", got)
		}
		if len(f.calls) != 1 {
			t.Errorf("calls = %v, want only the default table", f.calls)
		}
	})

	t.Run("falls back to queue tables", func(t *testing.T) {
		f := &fakeFetcher{
			responses: map[string]any{
				tables: map[string]any{"rows": []any{}},
				queues: []any{
					map[string]any{"id": queue1},
					map[string]any{"queueId": queue2},
				},
				tables + "?queue=" + queue2: []any{team(teamID, "Legia")},
			},
			errs: map[string]error{
				tables + "?queue=" + queue1: &upstream.HTTPError{Status: 500, Path: "x"},
			},
		}
		got, err := newTestService(f).Teams(ctx, models.Female, playID)
		if err != nil {
			t.Fatalf("Teams() error = %v", err)
		}
		if len(got) != 1 || got[0].Team != "Legia" {
			t.Errorf("Teams() = %+v, want team from second queue", got)
		}
		if len(f.calls) != 4 {
			t.Errorf("calls = %v, want 4", f.calls)
		}
	})

	t.Run("not found", func(t *testing.T) {
		f := &fakeFetcher{responses: map[string]any{
			queues: []any{map[string]any{"id": queue1}},
		}}
		_, err := newTestService(f).Teams(ctx, models.Male, playID)
		if !errors.Is(err, ErrTeamsNotFound) {
			t.Errorf("error = %v, want ErrTeamsNotFound", err)
		}
	})

	t.Run("queue listing failure is not found", func(t *testing.T) {
		f := &fakeFetcher{errs: map[string]error{queues: errors.New("boom")}}
		_, err := newTestService(f).Teams(ctx, models.Male, playID)
		if !errors.Is(err, ErrTeamsNotFound) {
			t.Errorf("error = %v, want ErrTeamsNotFound", err)
		}
	})

	t.Run("default table failure propagates", func(t *testing.T) {
		want := &upstream.HTTPError{Status: 403, Body: "nope", Path: tables}
		f := &fakeFetcher{errs: map[string]error{tables: want}}
		_, err := newTestService(f).Teams(ctx, models.Male, playID)
		var herr *upstream.HTTPError
		if !errors.As(err, &herr) || herr.Status != 403 {
			t.Errorf("error = %v, want upstream 403", err)
		}
	})

	t.Run("cancelled during fallback", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		f := &fakeFetcher{errs: map[string]error{queues: context.Canceled}}
		_, err := newTestService(f).Teams(cctx, models.Male, playID)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestNormalizedResponses(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{responses: map[string]any{
		"/seasons/dictionaries": map[string]any{"items": []any{
			map[string]any{"id": seasonID, "name": "2024/2025", "isCurrent": true},
		}},
		"/teams/" + teamID + "/players": []any{
			map[string]any{"id": playerID, "firstName": "Jan", "lastName": "Kowalski"},
		},
	}}
	s := newTestService(f)

	seasons, err := s.Seasons(ctx, models.Male)
	if err != nil || len(seasons) != 1 || !seasons[0].IsCurrent {
		t.Errorf("Seasons() = %+v, %v", seasons, err)
	}

	players, err := s.Players(ctx, models.Male, teamID)
	if err != nil || len(players) != 1 || players[0].LastName != "Kowalski" {
		t.Errorf("Players() = %+v, %v", players, err)
	}

	stats, err := s.PlayerStats(ctx, models.Male, playerID, seasonID, leagueID)
	if err != nil || stats != nil {
		t.Errorf("PlayerStats() with empty upstream body = %v, %v; want nil, nil", stats, err)
	}
}

func TestStatsBatchDelegates(t *testing.T) {
	f := &fakeFetcher{}
	req := models.StatsBatchRequest{SeasonID: seasonID, LeagueID: leagueID, Players: []string{playerID, "bad"}}

	if _, err := newTestService(f).StatsBatch(context.Background(), models.Male, req); err != nil {
		t.Fatalf("StatsBatch() error = %v", err)
	}
	if f.batch.SeasonID != seasonID || f.batch.LeagueID != leagueID || strings.Join(f.batch.Players, ",") != playerID+",bad" {
		t.Errorf("forwarded request = %+v", f.batch)
	}
}

package models

// Season is a normalized season dictionary entry.
type Season struct {
	ID        any    `json:"id"`
	Name      string `json:"name"`
	IsCurrent bool   `json:"isCurrent"`
}

// League is one league flattened out of its league group.
type League struct {
	Group    string `json:"group"`
	League   string `json:"league"`
	LeagueID any    `json:"league_id"`
}

// Play is a normalized play dictionary entry.
type Play struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

// Team is a team discovered in a play's tables.
type Team struct {
	Team   string `json:"team"`
	TeamID string `json:"team_id"`
	Points any    `json:"points"`
}

// Player is a normalized squad member.
type Player struct {
	PlayerID  any     `json:"player_id"`
	FirstName string  `json:"firstname"`
	LastName  string  `json:"lastname"`
	Name      *string `json:"name"`
	Number    any     `json:"number"`
	Position  any     `json:"position"`
	Club      *string `json:"club"`
}

// StatsBatchRequest is the body of the batch stats endpoint.
type StatsBatchRequest struct {
	SeasonID string   `json:"seasonId" doc:"Season UUID"`
	LeagueID string   `json:"leagueId" doc:"League UUID"`
	Players  []string `json:"players" doc:"Player UUIDs; malformed entries are ignored"`
}

// TokenInfo describes a partition's credential without exposing it.
type TokenInfo struct {
	Partition       Partition `json:"partition"`
	Present         bool      `json:"present"`
	SourceURL       string    `json:"sourceUrl,omitempty"`
	CapturedAtMs    int64     `json:"capturedAtMs,omitempty"`
	AgeMs           int64     `json:"ageMs,omitempty"`
	ExpiresAtMs     int64     `json:"expiresAtMs,omitempty"`
	Fresh           bool      `json:"fresh"`
	LastChallengeMs int64     `json:"lastChallengeMs,omitempty"`
}

// BrowserStats reports the browser session state.
type BrowserStats struct {
	Running    bool     `json:"running"`
	Generation int64    `json:"generation"`
	Pages      []string `json:"pages"`
	Headless   bool     `json:"headless"`
}

// CaptureRecord is one journaled acquisition outcome.
type CaptureRecord struct {
	ID         string    `json:"id"`
	Partition  Partition `json:"partition"`
	Outcome    string    `json:"outcome"`
	Forced     bool      `json:"forced"`
	Generation int       `json:"generation"`
	Attempt    int       `json:"attempt"`
	DurationMs int64     `json:"durationMs"`
	SourceURL  string    `json:"sourceUrl,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  int64     `json:"createdAt"` // Unix timestamp ms
}

// Capture outcomes.
const (
	OutcomeCached   = "cached"
	OutcomeCaptured = "captured"
	OutcomeFailed   = "failed"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	OK                   bool            `json:"ok"`
	Version              string          `json:"version"`
	Headless             bool            `json:"headless"`
	Interactive          bool            `json:"interactive"`
	Debug                bool            `json:"debug"`
	TokenTTLMs           int64           `json:"token_ttl_ms"`
	CaptureWaitMs        int64           `json:"capture_wait_ms"`
	CaptureRetries       int             `json:"capture_retries"`
	DriverRestartRetries int             `json:"driver_restart_retries"`
	ProfileDir           string          `json:"profile_dir"`
	Browser              BrowserStats    `json:"browser"`
	Tokens               []TokenInfo     `json:"tokens"`
	RecentCaptures       []CaptureRecord `json:"recentCaptures,omitempty"`
}

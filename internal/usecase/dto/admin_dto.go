package dto

import "time"

// LogEntry is one line of the log file. Lines that are not JSON come back
// with only Raw set.
type LogEntry struct {
	Time    *time.Time `json:"time,omitempty"`
	Level   string     `json:"level,omitempty"`
	Logger  string     `json:"logger,omitempty"`
	Message string     `json:"message,omitempty"`
	Raw     string     `json:"raw,omitempty"`
}

type AdminStats struct {
	Lines           int `json:"lines"`
	Operators       int `json:"operators"`
	Stations        int `json:"stations"`
	StationLinks    int `json:"station_links"`
	PendingRequests int `json:"pending_requests"`
	Requests        int `json:"requests"`
}

// MeResponse describes the logged in user.
type MeResponse struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	AvatarURL string   `json:"avatar_url"`
	Admin     bool     `json:"admin"`
	Operators []string `json:"operators"`
	Readonly  bool     `json:"readonly"`
}

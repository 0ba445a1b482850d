package domain

import (
	"encoding/json"
	"time"
)

// SnapAppType tags a snap app with the kind of content it renders.
// Unknown values are allowed; presentation falls back to a default theme.
type SnapAppType string

// Well-known snap app types.
const (
	SnapAppTypeBriefing   SnapAppType = "briefing"
	SnapAppTypeStock      SnapAppType = "stock"
	SnapAppTypeNews       SnapAppType = "news"
	SnapAppTypeWeather    SnapAppType = "weather"
	SnapAppTypeCountdown  SnapAppType = "countdown"
	SnapAppTypeLeaderboard SnapAppType = "leaderboard"
)

// SnapApp is a shareable AI-generated content card.
type SnapApp struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	AppType     SnapAppType     `json:"appType"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Content     json.RawMessage `json:"content"`
	ViewCount   int64           `json:"viewCount"`
	ShareCount  int64           `json:"shareCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

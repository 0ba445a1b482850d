// Package preview renders social preview cards for snap apps.
package preview

import "github.com/snapbrief/snapbrief/internal/domain"

// Theme is the visual treatment of a preview card.
type Theme struct {
	Background string // top gradient stop
	Accent     string // bottom gradient stop
	Emoji      string
	Label      string
}

// themes keys visual treatments by app type. Unknown types fall back to
// defaultTheme.
var themes = map[domain.SnapAppType]Theme{
	domain.SnapAppTypeBriefing:    {Background: "#1e3a8a", Accent: "#3b82f6", Emoji: "☕", Label: "daily briefing"},
	domain.SnapAppTypeStock:       {Background: "#064e3b", Accent: "#10b981", Emoji: "📈", Label: "stocks"},
	domain.SnapAppTypeNews:        {Background: "#7c2d12", Accent: "#f97316", Emoji: "📰", Label: "news"},
	domain.SnapAppTypeWeather:     {Background: "#0c4a6e", Accent: "#38bdf8", Emoji: "🌤", Label: "weather"},
	domain.SnapAppTypeCountdown:   {Background: "#581c87", Accent: "#a855f7", Emoji: "⏳", Label: "countdown"},
	domain.SnapAppTypeLeaderboard: {Background: "#713f12", Accent: "#eab308", Emoji: "🏆", Label: "leaderboard"},
}

var defaultTheme = Theme{Background: "#111827", Accent: "#6b7280", Emoji: "✨", Label: "snap app"}

// ThemeFor returns the theme for an app type, falling back to the default
// for unrecognized types.
func ThemeFor(appType domain.SnapAppType) Theme {
	if theme, ok := themes[appType]; ok {
		return theme
	}
	return defaultTheme
}

package preview

import (
	"strings"
	"testing"

	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeFor_KnownTypes(t *testing.T) {
	assert.Equal(t, "📈", ThemeFor(domain.SnapAppTypeStock).Emoji)
	assert.Equal(t, "☕", ThemeFor(domain.SnapAppTypeBriefing).Emoji)
}

func TestThemeFor_UnknownTypeGetsDefault(t *testing.T) {
	theme := ThemeFor(domain.SnapAppType("quantum-sudoku"))
	assert.Equal(t, defaultTheme, theme)
}

func TestRender_ComposesCard(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	card, err := renderer.Render(&domain.SnapApp{
		AppType:     domain.SnapAppTypeStock,
		Title:       "NVDA Movers",
		Description: "Top gainers today",
	})
	require.NoError(t, err)

	svg := string(card)
	assert.True(t, strings.HasPrefix(svg, "<svg"), "output must be an SVG document")
	assert.Contains(t, svg, "NVDA Movers")
	assert.Contains(t, svg, "Top gainers today")
	assert.Contains(t, svg, "📈")
	assert.Contains(t, svg, "#064e3b")
	assert.Contains(t, svg, "STOCKS")
}

func TestRender_UnknownTypeUsesDefaultVisuals(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	card, err := renderer.Render(&domain.SnapApp{
		AppType: domain.SnapAppType("mystery"),
		Title:   "Anything",
	})
	require.NoError(t, err)

	assert.Contains(t, string(card), defaultTheme.Emoji)
	assert.Contains(t, string(card), "#111827")
}

func TestRender_EscapesMarkup(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	card, err := renderer.Render(&domain.SnapApp{
		AppType: domain.SnapAppTypeNews,
		Title:   `<script>alert("x")</script>`,
	})
	require.NoError(t, err)

	svg := string(card)
	assert.NotContains(t, svg, "<script>")
	assert.Contains(t, svg, "&lt;script&gt;")
}

func TestRender_TruncatesLongTitles(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	card, err := renderer.Render(&domain.SnapApp{
		AppType: domain.SnapAppTypeNews,
		Title:   strings.Repeat("a", 200),
	})
	require.NoError(t, err)

	assert.Contains(t, string(card), "…")
	assert.NotContains(t, string(card), strings.Repeat("a", 41))
}

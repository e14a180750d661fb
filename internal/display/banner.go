package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerArt string

// RenderBanner returns the banner art and tagline centred for the
// terminal's width.
func RenderBanner(tagline string) string {
	return renderBanner(termWidth(), tagline)
}

func renderBanner(width int, tagline string) string {
	art := BannerStyle.Render(strings.TrimRight(bannerArt, "\n"))
	block := art
	if tagline != "" {
		block = lipgloss.JoinVertical(lipgloss.Center, art, "", dimStyle.Render(tagline))
	}
	if width <= lipgloss.Width(block) {
		return block + "\n"
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block) + "\n"
}

// termWidth falls back to 80 columns when stdout is not a terminal.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}

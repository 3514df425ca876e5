package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

const (
	colorTitle    = lipgloss.Color("#1DA1F2")
	colorFavorite = lipgloss.Color("#F5B301")
	colorFailure  = lipgloss.Color("#E0245E")
	colorPending  = lipgloss.Color("#FFA500")
	colorMuted    = lipgloss.Color("#657786")
)

var styles = newPalette(colorTitle, colorFavorite, colorFailure, colorPending, colorMuted)

// palette holds the named styles shared by every view.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style // favorited marker
	err   lipgloss.Style
	warn  lipgloss.Style // in-flight marker
	help  lipgloss.Style
	toast lipgloss.Style
}

func newPalette(title, favorite, failure, pending, muted lipgloss.Color) palette {
	return palette{
		title: bold(lipgloss.Color("#FFFFFF")).Background(title).Padding(0, 1),
		ok:    bold(favorite),
		err:   bold(failure),
		warn:  lipgloss.NewStyle().Foreground(pending),
		help:  lipgloss.NewStyle().Foreground(muted).Italic(true),
		toast: bold(lipgloss.Color("#FFFFFF")).Background(failure).Padding(0, 1),
	}
}

// styleList applies the palette to a list's title bar.
func (p palette) styleList(l *list.Model) {
	l.Styles.Title = p.title
}

func bold(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Bold(true)
}

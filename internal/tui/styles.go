package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/couplersim/internal/coupler"
)

var (
	title   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	label   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	value   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	subtle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	running = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	paused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	failed  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)
)

// zoneStyles colour a slack bar by the zone of its coupler.
var zoneStyles = map[coupler.Zone]lipgloss.Style{
	coupler.DeadBand:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	coupler.Spring:      lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
	coupler.StiffSpring: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	coupler.Stop:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

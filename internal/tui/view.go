package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/playback"
	"github.com/pbaille/wanderword/internal/session"
	"github.com/pbaille/wanderword/internal/stats"
)

const progressWidth = 32

var (
	accent = lipgloss.Color("#F7B801")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	meaningStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#A0AEC0"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(accent)
	visitedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	loadingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	statsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	barFullStyle  = lipgloss.NewStyle().Foreground(accent)
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(accent)
	frameStyle    = lipgloss.NewStyle().Padding(1, 2)
)

// View renders the current session snapshot
func (m *Model) View() string {
	snap := m.sess.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("WANDERWORD"))
	b.WriteString("\n\n")

	if m.mode == modeSearch {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.loading {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(loadingStyle.Render(loadingMessages[m.loadingIdx]))
		b.WriteString("\n")
	}

	if msg := m.bannerText(snap); msg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("! " + msg))
		b.WriteString("\n")
	}

	if snap.Journey != nil {
		b.WriteString("\n")
		b.WriteString(m.journeyView(*snap.Journey, snap.Playback))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpText()))
	return frameStyle.Render(b.String())
}

func (m *Model) bannerText(snap session.Snapshot) string {
	if m.status != "" {
		return m.status
	}
	return snap.Error
}

func (m *Model) journeyView(j domain.Journey, st playback.State) string {
	var b strings.Builder

	heading := j.Word
	if m.favorite {
		heading += " ★"
	}
	b.WriteString(titleStyle.Render(heading))
	if j.Source != "" {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  [%s]", j.Source)))
	}
	b.WriteString("\n")
	if j.CurrentMeaning != "" {
		b.WriteString(meaningStyle.Render(j.CurrentMeaning))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(timelineLine(-1, st.Cursor, originLabel(j.Origin)))
	b.WriteString("\n")
	for i, wp := range j.Waypoints {
		b.WriteString(timelineLine(i, st.Cursor, waypointLabel(wp)))
		b.WriteString("\n")
	}

	if note := activeNarrative(j, st.Cursor); note != "" {
		b.WriteString("\n")
		b.WriteString(meaningStyle.Render(note))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(progressBar(st.Progress(), progressWidth))
	b.WriteString(fmt.Sprintf("  %s  %s\n", st.Status, st.Speed))
	b.WriteString(statsStyle.Render(statsLine(stats.Summarize(j))))
	b.WriteString("\n")
	return b.String()
}

func originLabel(o domain.Origin) string {
	return fmt.Sprintf("%s (%s) · %s · %s", o.Word, o.Language, o.Century, o.Location.Name)
}

func waypointLabel(wp domain.Waypoint) string {
	route := "⛰"
	if wp.RouteType == domain.RouteSea {
		route = "⚓"
	}
	return fmt.Sprintf("%s %s (%s) · %s · %s", route, wp.Word, wp.Language, wp.Century, wp.Location.Name)
}

func timelineLine(idx, cursor int, label string) string {
	switch {
	case idx == cursor:
		return activeStyle.Render("▶ " + label)
	case idx < cursor:
		return visitedStyle.Render("● " + label)
	default:
		return upcomingStyle.Render("○ " + label)
	}
}

func activeNarrative(j domain.Journey, cursor int) string {
	if cursor < 0 || cursor >= j.Len() {
		return j.Origin.Meaning
	}
	return j.Waypoints[cursor].Narrative
}

func progressBar(p float64, width int) string {
	filled := int(math.Round(p * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func statsLine(s stats.Summary) string {
	return fmt.Sprintf("languages %d · centuries %s · route %s · %.0f km", s.Languages, s.CenturySpan, s.Route, s.DistanceKm)
}

func (m *Model) helpText() string {
	if m.mode == modeSearch {
		return "enter trace · esc back · ctrl+c quit"
	}
	return "←/→ step · space play/pause · r reset · 1/2/3 speed · f favourite · n new search · esc dismiss · q quit"
}

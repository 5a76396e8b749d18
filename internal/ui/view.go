package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/bouyomi/bouyomi"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	if m.help.ShowAll {
		b.WriteString(m.renderHelp())
		return b.String()
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatusPanel(),
		m.renderTalkerPanel(),
		m.renderSettingsPanel(),
	)
	b.WriteString(panels)
	b.WriteString("\n")
	b.WriteString(m.renderHistory())
	b.WriteString("\n")
	if len(m.logLines) > 0 {
		b.WriteString(m.renderLog())
		b.WriteString("\n")
	}
	b.WriteString(m.renderInput())
	if m.notice != "" {
		styles := m.theme.Styles()
		style := styles.SuccessText
		if !m.noticeOK {
			style = styles.DangerText
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.notice))
	}
	return b.String()
}

// renderHeader renders the connection state, playback state and the last refresh time.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	sep := "  "
	parts := []string{styles.Logo.Render("bouyomi")}

	addr := ""
	if m.remote != nil {
		addr = m.remote.Addr()
	}
	target := styles.MutedText.Render(strings.TrimSpace(m.transport + " " + addr))

	snap := m.snapshot
	switch {
	case snap.IsOffline() || (!snap.HasStatus && snap.LastError != nil):
		parts = append(parts,
			styles.DangerText.Render("● "+classifyConnectionError(snap.LastError)),
			target,
			styles.WarningText.Bold(true).Render("Retrying..."),
		)
	case !snap.HasStatus:
		parts = append(parts,
			styles.WarningText.Bold(true).Render("Connecting..."),
			target,
		)
	default:
		parts = append(parts, styles.SuccessText.Render("● ONLINE"), target)
		if snap.Status.Paused {
			parts = append(parts, styles.WarningText.Render("PAUSED"))
		}
		if snap.Status.NowPlaying {
			parts = append(parts, styles.InfoText.Render("PLAYING"))
		}
		parts = append(parts,
			styles.MutedText.Render("Tasks:")+" "+styles.Text.Render(fmt.Sprintf("%d", snap.Status.TaskCount)))
	}

	if !snap.LastUpdated.IsZero() {
		parts = append(parts, styles.FaintText.Render("updated "+humanize.Time(snap.LastUpdated)))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the short key help plus the theme indicator.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	hints := m.help.ShortHelpView(m.keys.ShortHelp())
	return styles.Header.Width(m.width).Render(
		hints + "  " + styles.AccentText.Render("t") + styles.FaintText.Render(":"+m.theme.Name))
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	title := styles.Title.Render("Keyboard Shortcuts")
	return styles.Panel.Render(title + "\n\n" + m.help.FullHelpView(m.keys.FullHelp()))
}

func (m Model) renderStatusPanel() string {
	styles := m.theme.Styles()
	st := m.snapshot.Status
	rows := [][2]string{
		{"Paused", yesNo(st.Paused)},
		{"Playing", yesNo(st.NowPlaying)},
		{"Tasks", fmt.Sprintf("%d", st.TaskCount)},
	}
	if st.NowTaskID != 0 {
		rows = append(rows, [2]string{"Task ID", fmt.Sprintf("%d", st.NowTaskID)})
	}
	if !m.snapshot.HasStatus {
		rows = [][2]string{{"Status", "unknown"}}
	}
	return styles.Panel.Render(styles.Title.Render("Application") + "\n" + m.renderRows(rows))
}

func (m Model) renderTalkerPanel() string {
	styles := m.theme.Styles()
	if m.talker == nil {
		return ""
	}
	stats := m.talker.Stats()
	rows := [][2]string{
		{"Pending", fmt.Sprintf("%d", m.talker.Pending())},
		{"Sent", humanize.Comma(stats.Sent)},
		{"Failed", humanize.Comma(stats.Failed)},
		{"Dropped", humanize.Comma(stats.Dropped)},
	}
	return styles.Panel.Render(styles.Title.Render("Talker") + "\n" + m.renderRows(rows))
}

func (m Model) renderSettingsPanel() string {
	styles := m.theme.Styles()
	rows := [][2]string{
		{"Voice", bouyomi.Voice(m.prefs.Voice).String()},
		{"Speed", settingValue(m.prefs.Speed)},
		{"Tone", settingValue(m.prefs.Tone)},
		{"Volume", settingValue(m.prefs.Volume)},
	}
	return styles.Panel.Render(styles.Title.Render("Settings") + "\n" + m.renderRows(rows))
}

func (m Model) renderHistory() string {
	styles := m.theme.Styles()
	lines := m.snapshot.History
	if len(lines) == 0 {
		return styles.Panel.Render(styles.Title.Render("History") + "\n" + styles.FaintText.Render("nothing spoken yet"))
	}

	limit := 8
	if m.height > 0 {
		limit = max(m.height-18, 3)
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	width := max(m.width-8, 20)
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, styles.Text.Render(truncate(line, width)))
	}
	return styles.Panel.Render(styles.Title.Render("History") + "\n" + strings.Join(rendered, "\n"))
}

func (m Model) renderLog() string {
	styles := m.theme.Styles()
	width := max(m.width-8, 20)
	rendered := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		style := styles.FaintText
		switch {
		case strings.Contains(line, "ERRO"):
			style = styles.DangerText
		case strings.Contains(line, "WARN"):
			style = styles.WarningText
		}
		rendered = append(rendered, style.Render(truncate(line, width)))
	}
	return styles.Panel.Render(styles.Title.Render("Log") + "\n" + strings.Join(rendered, "\n"))
}

func (m Model) renderInput() string {
	styles := m.theme.Styles()
	box := styles.Panel
	if m.input.Focused() {
		box = styles.PanelFocus
	}
	return box.Width(max(m.width-2, 20)).Render(m.input.View())
}

func (m Model) renderRows(rows [][2]string) string {
	styles := m.theme.Styles()
	label := styles.MutedText.Width(9)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, label.Render(r[0])+styles.Text.Render(r[1]))
	}
	return strings.Join(out, "\n")
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	switch {
	case err == nil:
		return "OFFLINE"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, bouyomi.ErrMalformedResponse):
		return "BAD REPLY"
	case strings.Contains(err.Error(), "connection refused"):
		return "OFFLINE"
	case strings.Contains(err.Error(), "no such host"):
		return "HOST NOT FOUND"
	default:
		return "ERROR"
	}
}

func settingValue(v int) string {
	if v == bouyomi.Unset {
		return "app default"
	}
	return fmt.Sprintf("%d", v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens s to at most max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

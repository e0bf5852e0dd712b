package play

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))  // Green
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // Yellow
	stoppedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Gray
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	slotStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeSlot    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	downloadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// rows taken by everything except the track list
const chromeRows = 11

func (m model) listHeight() int {
	h := m.height - chromeRows
	if h < 3 {
		return 3
	}
	return h
}

func (m model) viewWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m model) View() string {
	if m.helpView {
		return m.renderHelp()
	}

	np := m.session.NowPlaying()
	width := m.viewWidth()
	var b strings.Builder

	shuffle := "off"
	if np.Shuffle {
		shuffle = "on"
	}
	b.WriteString(titleStyle.Render("♪ musicbox"))
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %s  shuffle:%s  vol:%d%%  fade:%dms",
		np.Playlist, shuffle, int(np.Volume*100+0.5), np.Fade.Milliseconds())))
	b.WriteString("\n\n")

	b.WriteString(m.renderNowPlaying(np, width))
	b.WriteString("\n")
	b.WriteString(renderSlider(np, width))
	b.WriteString("\n\n")

	b.WriteString(m.renderSlots(np.Playlist, width))
	b.WriteString("\n\n")

	b.WriteString(m.renderTracks(np.Title, width))

	b.WriteString("\n")
	b.WriteString(m.renderFooter(np, width))
	return b.String()
}

func (m model) renderNowPlaying(np jukebox.NowPlaying, width int) string {
	if np.Title == "" {
		return stoppedStyle.Render("■ nothing loaded")
	}
	var icon string
	var style lipgloss.Style
	switch np.State {
	case jukebox.StatePlaying:
		icon, style = "▶", playingStyle
	case jukebox.StatePaused:
		icon, style = "❚❚", pausedStyle
	default:
		icon, style = "■", stoppedStyle
	}
	queue := fmt.Sprintf(" (%d/%d)", np.QueueIndex+1, np.QueueLen)
	title := runewidth.Truncate(np.Title, width-runewidth.StringWidth(icon)-len(queue)-2, "…")
	return style.Render(icon+" "+title) + helpStyle.Render(queue)
}

func renderSlider(np jukebox.NowPlaying, width int) string {
	pos := jukebox.FormatClock(np.Position)
	if np.Dragging {
		pos = jukebox.FormatClock(jukebox.FractionToPosition(np.Slider, np.Duration))
	}
	length := jukebox.FormatClock(np.Duration)
	barWidth := width - len(pos) - len(length) - 4
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(np.Slider / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + "●" + strings.Repeat("─", barWidth-filled)
	style := playingStyle
	if np.Dragging {
		style = promptStyle
	}
	return pos + " " + style.Render(bar) + " " + length
}

func (m model) renderSlots(current string, width int) string {
	var parts []string
	for i := 0; i < 10; i++ {
		name, ok := m.session.Library().Slot(i)
		if !ok {
			break
		}
		label := fmt.Sprintf("%d:%s", i, runewidth.Truncate(name, 14, "…"))
		if name == current {
			parts = append(parts, activeSlot.Render(label))
		} else {
			parts = append(parts, slotStyle.Render(label))
		}
	}
	all := "a:" + jukebox.AllPlaylist
	if current == jukebox.AllPlaylist {
		all = activeSlot.Render(all)
	} else {
		all = slotStyle.Render(all)
	}
	parts = append([]string{all}, parts...)
	return lipgloss.NewStyle().Width(width).Render(strings.Join(parts, "  "))
}

func (m model) renderTracks(playing string, width int) string {
	queue := m.queue()
	if len(queue) == 0 {
		return helpStyle.Render("  (no tracks in this playlist)") + "\n"
	}

	height := m.listHeight()
	offset := 0
	if m.cursor >= height {
		offset = m.cursor - height + 1
	}

	var b strings.Builder
	for i := offset; i < len(queue) && i < offset+height; i++ {
		name := queue[i]
		marker := "  "
		if name == playing {
			marker = "♪ "
		}
		line := marker + runewidth.Truncate(name, width-4, "…")
		if i == m.cursor {
			line = selectedStyle.Render(runewidth.FillRight(line, width-1))
		} else if name == playing {
			line = playingStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderFooter(np jukebox.NowPlaying, width int) string {
	var b strings.Builder
	switch m.mode {
	case modeURL:
		b.WriteString(promptStyle.Render("URLs: ") + m.input + "█")
	case modeRename:
		b.WriteString(promptStyle.Render("Rename to: ") + m.input + "█")
	case modeMembership:
		b.WriteString(promptStyle.Render("Toggle membership in playlist slot (0-9)"))
	case modeConfirmDelete:
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %s? (y/n)", runewidth.Truncate(m.pending, width-16, "…"))))
	case modeSeek:
		b.WriteString(promptStyle.Render("Seek: ←/→ 1%  H/L 10%  enter apply  esc cancel"))
	default:
		b.WriteString(statusStyle.Render(runewidth.Truncate(np.Status, width, "…")))
	}
	b.WriteString("\n")
	if m.download != "" {
		b.WriteString(downloadStyle.Render(runewidth.Truncate(m.download, width, "…")))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play/pause • n/p next/prev • ←/→ seek • 0-9/a playlist • u download • ? help • q quit"))
	return b.String()
}

func (m model) renderHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("musicbox keys"))
	b.WriteString("\n\n")
	keys := [][2]string{
		{"space", "Play / pause"},
		{"enter", "Play selected track"},
		{"n / p", "Next / previous track"},
		{"← → / h l", "Seek 5 seconds"},
		{"b", "Back to the start of the track"},
		{"g", "Drag the position slider"},
		{"↑ ↓ / k j", "Move selection"},
		{"0-9", "Select playlist slot"},
		{"a", "Select All"},
		{"s", "Toggle shuffle"},
		{"+ / -", "Volume up / down"},
		{"] / [", "Longer / shorter fade"},
		{"m then 0-9", "Add or remove the playing track in a playlist"},
		{"r", "Rename the current playlist"},
		{"d then y", "Delete the selected track"},
		{"u", "Download YouTube URLs (comma separated)"},
		{"c", "Cancel downloads"},
		{"y", "Copy the selected track's path"},
		{"q", "Quit"},
	}
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %s  %s\n", headerStyle.Render(runewidth.FillRight(k[0], 12)), k[1]))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Press any key to return"))
	return b.String()
}

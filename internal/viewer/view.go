package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/convoview/internal/stats"
	"github.com/kbukum/convoview/internal/timeline"
	"github.com/kbukum/convoview/internal/transcript"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	barChar       = "█"
	gapChar       = "─"
	headChar      = "▼"
)

// View renders the current screen.
func (m Model) View() string {
	if m.screen == screenDetail {
		return m.detailView()
	}
	return m.listView()
}

func (m Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (m Model) listView() string {
	w, h := m.size()
	var b strings.Builder

	live := dimStyle.Render("offline")
	if m.live {
		live = activeStyle.Render("live")
	}
	b.WriteString(titleStyle.Render("Conversations") + "  " +
		dimStyle.Render(fmt.Sprintf("%d total", m.total)) + "  " + live + "\n")
	b.WriteString(dividerStyle.Render(strings.Repeat(gapChar, w)) + "\n")

	switch {
	case m.loading && len(m.items) == 0:
		b.WriteString(dimStyle.Render("loading...") + "\n")
	case len(m.items) == 0:
		b.WriteString(dimStyle.Render("no conversations") + "\n")
	}

	rows := max(1, h-4)
	first := 0
	if m.selected >= rows {
		first = m.selected - rows + 1
	}
	for i := first; i < len(m.items) && i < first+rows; i++ {
		c := m.items[i]
		line := fmt.Sprintf("%5d  %-24s  %s", c.ID, truncate(c.FileName, 24), c.DateTime.Format("2006-01-02 15:04"))
		if i == m.selected {
			b.WriteString(selectedStyle.Render(padRight(line, w)) + "\n")
			continue
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(m.errorLine())
	b.WriteString(footer("↑/↓", "move", "enter", "open", "r", "reload", "q", "quit"))
	return b.String()
}

func (m Model) detailView() string {
	w, h := m.size()
	var b strings.Builder

	if m.conv == nil {
		if m.loading {
			b.WriteString(dimStyle.Render("loading...") + "\n")
		}
		b.WriteString(m.errorLine())
		b.WriteString(footer("esc", "back", "q", "quit"))
		return b.String()
	}

	b.WriteString(titleStyle.Render(m.conv.FileName) + "  " + dimStyle.Render(m.conv.FilePath) + "\n")
	b.WriteString(m.statsLine() + "\n")
	b.WriteString(m.audioLine(w) + "\n")
	b.WriteString(dividerStyle.Render(strings.Repeat(gapChar, w)) + "\n")
	b.WriteString(m.timelineBar(w) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("mode: %s  ", m.mode)) + m.Status() + "\n")
	b.WriteString(m.filterLine() + "\n")
	b.WriteString(dividerStyle.Render(strings.Repeat(gapChar, w)) + "\n")

	rows := max(1, h-11)
	b.WriteString(m.fragmentRows(w, rows))
	b.WriteString(m.errorLine())
	b.WriteString(footer("space", "play", "←/→", "seek", "enter", "jump", "/", "search",
		"c", "class", "m", "mode", "esc", "back"))
	return b.String()
}

func (m Model) statsLine() string {
	if m.stats == nil {
		return dimStyle.Render("no analysis")
	}
	s := m.stats
	stat := func(label, value string) string {
		return statLabelStyle.Render(label+" ") + statValueStyle.Render(value)
	}
	parts := []string{
		stat("duration", s.TotalDuration),
		stat("speakers", fmt.Sprintf("%d", s.SpeakerCount)),
		stat("avg", fmt.Sprintf("%.2fs", s.AvgFragmentDuration)),
		stat("emotion", s.TopEmotion),
		stat("class", s.TopClass),
		stat("overlaps", fmt.Sprintf("%d (%.1f%%)", s.OverlapDetails.Count, s.OverlapDetails.Percentage)),
	}
	return strings.Join(parts, "  ")
}

func (m Model) audioLine(width int) string {
	switch {
	case m.audio == nil:
		return dimStyle.Render("audio: resolving...")
	case m.audio.Err != nil:
		return dimStyle.Render("audio: unavailable")
	}
	line := "audio: " + m.audio.Link.URL
	if exp := m.audio.Link.ExpiresAt; exp != nil {
		line += " (expires " + exp.Local().Format("15:04") + ")"
	}
	return dimStyle.Render(truncate(line, width))
}

func (m Model) filterLine() string {
	if m.searching {
		return activeStyle.Render("/") + m.input + activeStyle.Render("▏")
	}
	var parts []string
	if m.query.Text != "" {
		parts = append(parts, "search: "+m.query.Text)
	}
	if m.query.Class != "" {
		parts = append(parts, "class: "+m.query.Class)
	}
	if m.fragments != nil {
		parts = append(parts, fmt.Sprintf("%d of %d fragments", len(m.fragments.Items), m.fragments.Total))
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

// timelineBar draws one cell per slice of the duration, colored by the
// first region covering it, with the playhead marked.
func (m Model) timelineBar(width int) string {
	if m.playback == nil || m.playback.Duration() <= 0 {
		return dimStyle.Render(strings.Repeat(gapChar, width))
	}
	duration := m.playback.Duration()
	var regions []timeline.Region
	if m.regions != nil {
		regions = m.regions.Regions
	}
	head := int(m.playback.Position() / duration * float64(width))
	if head >= width {
		head = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i == head {
			b.WriteString(playheadStyle.Render(headChar))
			continue
		}
		mid := (float64(i) + 0.5) / float64(width) * duration
		color := ""
		for _, r := range regions {
			if mid >= r.Start && mid < r.End {
				color = r.Color
				break
			}
		}
		if color == "" {
			b.WriteString(dividerStyle.Render(gapChar))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(barChar))
	}
	return b.String()
}

func (m Model) fragmentRows(width, rows int) string {
	if m.fragments == nil {
		return dimStyle.Render("loading fragments...") + "\n"
	}
	if len(m.fragments.Items) == 0 {
		return dimStyle.Render("no matching fragments") + "\n"
	}

	first := 0
	if m.row >= rows {
		first = m.row - rows + 1
	}
	active := -1
	if m.playback != nil {
		active = m.playback.Active()
	}

	var b strings.Builder
	for i := first; i < len(m.fragments.Items) && i < first+rows; i++ {
		b.WriteString(m.fragmentRow(m.fragments.Items[i], i == m.row, active, width) + "\n")
	}
	return b.String()
}

func (m Model) fragmentRow(f transcript.Match, selected bool, active, width int) string {
	marker := "  "
	if f.Index == active {
		marker = activeStyle.Render("▶ ")
	}
	clock := dimStyle.Render(stats.FormatClock(int64(f.Start * 1000)))
	speaker := speakerStyle(f.Speaker).Render(fmt.Sprintf("%-9s", timeline.SpeakerLabel(f.Speaker)))

	var badges []string
	if f.Class != "" {
		badges = append(badges, badgeStyle(timeline.ClassColor(f.Class)).Render(f.Class))
	}
	if f.Emotion != "" {
		badges = append(badges, badgeStyle(string(colorDimGray)).Render(f.Emotion))
	}
	tail := strings.Join(badges, " ")

	room := width - 2 - 8 - 1 - 9 - 1 - lipgloss.Width(tail) - 1
	text := truncate(f.Text, max(room, 10))
	if selected {
		text = selectedStyle.Render(text)
	} else if f.Index == active {
		text = activeStyle.Render(text)
	}
	return marker + clock + " " + speaker + " " + text + " " + tail
}

func (m Model) errorLine() string {
	if m.errMessage == "" {
		return ""
	}
	return errorStyle.Render("error: "+m.errMessage) + "\n"
}

// footer renders key/description pairs.
func footer(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, footerKeyStyle.Render(pairs[i])+" "+footerDescStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

// Package ui renders framed terminal output for the CLI: result boxes and
// key/value reports.
package ui

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Kind selects the colour and prefix of a box.
type Kind int

const (
	InfoBox Kind = iota
	SuccessBox
	WarningBox
	ErrorBox
)

const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"

	// boxChrome is the border plus padding around content on one line.
	boxChrome = 6
)

var styles = map[Kind]struct {
	style  lipgloss.Style
	prefix string
}{
	InfoBox:    {lipgloss.NewStyle().Foreground(lipgloss.Color("86")), "ℹ"},
	SuccessBox: {lipgloss.NewStyle().Foreground(lipgloss.Color("42")), "✓"},
	WarningBox: {lipgloss.NewStyle().Foreground(lipgloss.Color("178")), "⚠"},
	ErrorBox:   {lipgloss.NewStyle().Foreground(lipgloss.Color("196")), "✗"},
}

// Box is a builder for a framed message.
type Box struct {
	kind    Kind
	title   string
	content []string
	width   int
}

// NewBox creates a box sized to the terminal.
func NewBox(kind Kind, title string) *Box {
	return &Box{kind: kind, title: title, width: terminalWidth() - 8}
}

// WithWidth caps the total box width.
func (b *Box) WithWidth(width int) *Box {
	b.width = width
	return b
}

// AddLine adds a line of text.
func (b *Box) AddLine(text string) *Box {
	b.content = append(b.content, text)
	return b
}

// AddBullet adds a bulleted line.
func (b *Box) AddBullet(text string) *Box {
	b.content = append(b.content, "• "+text)
	return b
}

// AddLines adds every line of a multi-line string.
func (b *Box) AddLines(text string) *Box {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.AddLine(line)
	}
	return b
}

// Render returns the box. Long lines are wrapped at word boundaries.
func (b *Box) Render() string {
	s, ok := styles[b.kind]
	if !ok {
		s = styles[InfoBox]
	}
	style, prefix := s.style, s.prefix

	contentWidth := b.width - boxChrome
	if contentWidth < 10 {
		contentWidth = 10
	}

	var lines []string
	for _, line := range append([]string{b.title}, b.content...) {
		if utf8.RuneCountInString(line) <= contentWidth {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, wrapText(line, contentWidth)...)
	}

	width := boxChrome
	for _, line := range lines {
		if n := utf8.RuneCountInString(line) + boxChrome; n > width {
			width = n
		}
	}

	var sb strings.Builder
	sb.WriteString(style.Render(topLeft+strings.Repeat(horizontal, width-2)+topRight) + "\n")

	first := lines[0]
	pad := width - utf8.RuneCountInString(first) - utf8.RuneCountInString(prefix) - 5
	sb.WriteString(fmt.Sprintf("%s %s %s%s %s\n",
		style.Render(vertical),
		style.Bold(true).Render(prefix),
		first,
		strings.Repeat(" ", max(pad, 0)),
		style.Render(vertical)))

	for _, line := range lines[1:] {
		pad := width - utf8.RuneCountInString(line) - boxChrome
		sb.WriteString(fmt.Sprintf("%s   %s%s %s\n",
			style.Render(vertical),
			line,
			strings.Repeat(" ", max(pad, 0)),
			style.Render(vertical)))
	}

	sb.WriteString(style.Render(bottomLeft + strings.Repeat(horizontal, width-2) + bottomRight))
	return sb.String()
}

// Info renders an informational box.
func Info(title string, lines ...string) string {
	return boxOf(InfoBox, title, lines)
}

// Success renders a success box.
func Success(title string, lines ...string) string {
	return boxOf(SuccessBox, title, lines)
}

// Warning renders a warning box.
func Warning(title string, lines ...string) string {
	return boxOf(WarningBox, title, lines)
}

// Error renders an error box.
func Error(title string, lines ...string) string {
	return boxOf(ErrorBox, title, lines)
}

func boxOf(kind Kind, title string, lines []string) string {
	b := NewBox(kind, title)
	for _, line := range lines {
		b.AddLine(line)
	}
	return b.Render()
}

// terminalWidth returns the width of stdout or 80 when it is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// wrapText wraps text at word boundaries to at most maxWidth runes per line.
func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(word)+1 <= maxWidth {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

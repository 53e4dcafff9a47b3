package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/amp-labs/autoswitch/strategy"
	"github.com/amp-labs/autoswitch/switcher"
	"github.com/charmbracelet/lipgloss"
)

const defaultColor = "#89b4fa"

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")) //nolint:gochecknoglobals

// slideView keeps the display state the strategies drive.
type slideView struct {
	slide       Slide
	visible     bool
	alpha       float64
	translation float64
}

var (
	_ switcher.View       = (*slideView)(nil)
	_ strategy.Fader      = (*slideView)(nil)
	_ strategy.Translator = (*slideView)(nil)
)

func (v *slideView) SetVisible(visible bool)       { v.visible = visible }
func (v *slideView) SetAlpha(alpha float64)        { v.alpha = alpha }
func (v *slideView) SetTranslation(offset float64) { v.translation = offset }

// screen prints a frame every time the carousel changes slide.
type screen struct {
	out   io.Writer
	title string
	width int
	views []*slideView
}

func newScreen(out io.Writer, deck Deck, width int) *screen {
	views := make([]*slideView, len(deck.Slides))
	for i, slide := range deck.Slides {
		views[i] = &slideView{slide: slide, alpha: 1}
	}

	return &screen{out: out, title: deck.Title, width: width, views: views}
}

func (s *screen) switcherViews() []switcher.View {
	out := make([]switcher.View, len(s.views))
	for i, v := range s.views {
		out[i] = v
	}

	return out
}

func (s *screen) draw(current, previous int) {
	_, _ = fmt.Fprintln(s.out, s.render(current, previous))
}

func (s *screen) render(current, previous int) string {
	view := s.views[current]

	color := view.slide.Color
	if color == "" {
		color = defaultColor
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(0, 1).
		Width(s.width).
		MarginLeft(s.offset(view.translation)).
		Faint(view.alpha < 0.5)

	body := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(view.slide.Title)
	if view.slide.Body != "" {
		body += "\n" + view.slide.Body
	}

	lines := []string{
		dimStyle.Render(fmt.Sprintf("%s [%d/%d]", s.title, current+1, len(s.views))),
		box.Render(body),
	}

	if previous != current && s.views[previous].visible {
		lines = append(lines, dimStyle.Render("leaving: "+s.views[previous].slide.Title))
	}

	return strings.Join(lines, "\n")
}

// offset turns a translation in view widths into a left margin in cells.
func (s *screen) offset(translation float64) int {
	return max(int(math.Round(translation*float64(s.width)/2)), 0)
}

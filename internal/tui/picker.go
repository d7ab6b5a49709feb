package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/faketype/internal/model"
)

const pickerWidth = 40

// picker selects the base delay between the configured bounds.
type picker struct {
	value int
	min   int
	max   int
	bar   progress.Model
}

func newPicker(cfg model.SpeedConfig) picker {
	bar := progress.New(
		progress.WithGradient("#00C800", "#C80000"),
		progress.WithoutPercentage(),
		progress.WithWidth(pickerWidth),
	)
	p := picker{value: cfg.BaseDelayMs, min: cfg.MinDelayMs, max: cfg.MaxDelayMs, bar: bar}
	p.move(0)
	return p
}

func (p *picker) move(delta int) {
	p.value += delta
	if p.value < p.min {
		p.value = p.min
	}
	if p.value > p.max {
		p.value = p.max
	}
}

func (p picker) ratio() float64 {
	if p.max <= p.min {
		return 0
	}
	return float64(p.value-p.min) / float64(p.max-p.min)
}

// valueColor fades from green (fast) to red (slow).
func (p picker) valueColor() lipgloss.Color {
	r := p.ratio()
	return lipgloss.Color(fmt.Sprintf("#%02X%02X00", int(r*200), int((1-r)*200)))
}

func (p picker) View() string {
	value := lipgloss.NewStyle().Foreground(p.valueColor()).Bold(true).
		Render(fmt.Sprintf("%d ms/char", p.value))
	bounds := footerStyle.Render(fmt.Sprintf("%-*d%*d", pickerWidth/2, p.min, pickerWidth/2, p.max))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Choose typing speed"),
		footerStyle.Render("Lower is faster, higher is slower"),
		"",
		p.bar.ViewAs(p.ratio()),
		bounds,
		"",
		"Speed: "+value,
	)
}

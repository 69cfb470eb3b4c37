package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent   = lipgloss.Color("#7C6F64")
	colorGreen    = lipgloss.Color("#98971A")
	colorYellow   = lipgloss.Color("#D79921")
	colorBlue     = lipgloss.Color("#458588")
	colorRed      = lipgloss.Color("#CC241D")
	colorSubtle   = lipgloss.Color("#665C54")
	colorFG       = lipgloss.Color("#EBDBB2")
	colorDim      = lipgloss.Color("#504945")

	styleTitle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	styleSubtitle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	styleDivider = lipgloss.NewStyle().
			Foreground(colorDim)

	styleSelectedItem = lipgloss.NewStyle().
				Foreground(colorYellow).
				Bold(true)

	styleNormalItem = lipgloss.NewStyle().
			Foreground(colorFG)

	styleDimItem = lipgloss.NewStyle().
			Foreground(colorSubtle)

	// active note marker in the sidebar
	styleActive = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	styleMode = lipgloss.NewStyle().
			Foreground(colorBlue)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleHint = lipgloss.NewStyle().
			Foreground(colorSubtle)

	styleInputActive = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorYellow).
				Padding(0, 1)

	styleSidebar = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(colorDim).
			PaddingRight(1)

	stylePane = lipgloss.NewStyle().
			PaddingLeft(1)

	stylePaneFocused = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(colorAccent)

	styleConfirm = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)

package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	tipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

// ErrorPrefix is prepended to error messages
func ErrorPrefix() string {
	return errorStyle.Render("error:") + " "
}

// WarnPrefix is prepended to warnings
func WarnPrefix() string {
	return warnStyle.Render("warning:") + " "
}

// TipPrefix is prepended to tips
func TipPrefix() string {
	return tipStyle.Render("tip:") + " "
}

// ColorDim renders text in a muted color
func ColorDim(text string) string {
	return dimStyle.Render(text)
}

// IsTTY reports whether both stdin and stdout are terminals
func IsTTY() bool {
	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is a terminal
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Package hoststyle formats m1ctl's terminal output, one function per
// semantic element the way zboralski-galago's internal/ui/colorize does
// it — here built on lipgloss instead of raw escape codes, since lipgloss
// is the styling library this teacher's go.mod actually carries.
package hoststyle

import "github.com/charmbracelet/lipgloss"

var (
	addressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC800"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD77F")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8080")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B4B4B4"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#56A1D6")).Bold(true)
)

// Address renders a 64-bit address in the hex form m1ctl's status output
// uses throughout.
func Address(addr uint64) string {
	return addressStyle.Render(hex(addr))
}

// OK renders a success label, e.g. a command's returned status.
func OK(s string) string { return okStyle.Render(s) }

// Err renders a failure label.
func Err(s string) string { return errStyle.Render(s) }

// Detail renders secondary/explanatory text.
func Detail(s string) string { return detailStyle.Render(s) }

// Header renders a section heading.
func Header(s string) string { return headerStyle.Render(s) }

func hex(v uint64) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 18)
	buf[0], buf[1] = '0', 'x'
	for i := 0; i < 16; i++ {
		buf[17-i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

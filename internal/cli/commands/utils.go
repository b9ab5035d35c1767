package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/kutbudev/cardboard/internal/api"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"})
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"})
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"})
)

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// terminalWidth returns the width of stdout, 100 when it is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// idArg parses the first argument as an identifier.
func idArg(c *cli.Context, what string) (uint, error) {
	return parseID(c.Args().First(), what)
}

func parseID(raw, what string) (uint, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s ID is required", what)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, raw)
	}
	return uint(id), nil
}

func newClient() (*api.Client, error) {
	return api.NewClient()
}

func success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

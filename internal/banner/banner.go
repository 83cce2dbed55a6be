package banner

import (
	"echoload/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

const ascii = `
           _           _                 _
  ___  ___| |__   ___ | | ___   __ _  __| |
 / _ \/ __| '_ \ / _ \| |/ _ \ / _' |/ _' |
|  __/ (__| | | | (_) | | (_) | (_| | (_| |
 \___|\___|_| |_|\___/|_|\___/ \__,_|\__,_|`

// GetString renders the banner shown above help output.
func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	return "\n" + style.Render(ascii) + "\n"
}

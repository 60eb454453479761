// Package banner prints the startup summary of the bot.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/alekspetrov/weeekbot/internal/health"
)

// Tagline is the project tagline
const Tagline = "Weeek tasks from chat messages"

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Transports lists what the running instance serves.
type Transports struct {
	Telegram bool
	Gateway  string // listen address, empty when disabled
}

// Startup prints the version, the enabled transports and the readiness report.
func Startup(w io.Writer, version string, t Transports, report *health.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "WEEEKBOT v%s │ %s\n", version, Tagline)
	fmt.Fprintln(w, rule)

	var serving []string
	if t.Telegram {
		serving = append(serving, "telegram")
	}
	if t.Gateway != "" {
		serving = append(serving, "gateway "+t.Gateway)
	}
	if len(serving) > 0 {
		fmt.Fprintf(w, "Serving: %s\n", strings.Join(serving, ", "))
	}

	if report != nil {
		for _, c := range report.Checks {
			line := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Name)
			if c.Message != "" {
				line += ": " + c.Message
			}
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Listening... (Ctrl+C to stop)")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

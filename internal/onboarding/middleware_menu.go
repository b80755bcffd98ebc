package onboarding

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"formroute/internal/middleware"
)

// MiddlewareSetting holds the user's choice for one middleware.
type MiddlewareSetting struct {
	ID      string
	Enabled bool
}

// MiddlewareMenu toggles chain middlewares on and off.
type MiddlewareMenu struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewMiddlewareMenu shares the wizard's input so both can run in one session.
func (w *Wizard) NewMiddlewareMenu() *MiddlewareMenu {
	return &MiddlewareMenu{scanner: w.scanner, out: w.out}
}

// Run displays the menu for ids and returns the gathered settings. disabled
// holds the IDs that start switched off.
func (m *MiddlewareMenu) Run(ids []string, disabled map[string]bool) []MiddlewareSetting {
	fmt.Fprintln(m.out, "\nPipeline middlewares")

	settings := make([]MiddlewareSetting, len(ids))
	for i, id := range ids {
		settings[i] = MiddlewareSetting{ID: id, Enabled: !disabled[id]}
	}

	for {
		fmt.Fprintln(m.out, strings.Repeat("-", 30))
		for i, s := range settings {
			status := "[ON] "
			if !s.Enabled {
				status = "[OFF]"
			}
			fmt.Fprintf(m.out, "%2d) %s %s\n", i+1, status, s.ID)
		}
		fmt.Fprintln(m.out, " 0) Finish & Save")
		fmt.Fprint(m.out, "\nSelect a number to toggle (or 0 to finish): ")

		if !m.scanner.Scan() {
			break
		}
		input := strings.TrimSpace(m.scanner.Text())
		if input == "0" || input == "" {
			break
		}
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(settings) {
			fmt.Fprintln(m.out, "Invalid selection. Please try again.")
			continue
		}
		settings[idx-1].Enabled = !settings[idx-1].Enabled
	}
	return settings
}

// UpdateEnvFile rewrites the disabled-middleware line of .env content.
func UpdateEnvFile(settings []MiddlewareSetting, envContent []string) []string {
	out := make([]string, 0, len(envContent)+1)
	for _, line := range envContent {
		if !strings.HasPrefix(line, middleware.DisabledEnv+"=") {
			out = append(out, line)
		}
	}

	var disabledList []string
	for _, s := range settings {
		if !s.Enabled {
			disabledList = append(disabledList, s.ID)
		}
	}
	if len(disabledList) > 0 {
		out = append(out, fmt.Sprintf("%s=%s", middleware.DisabledEnv, strings.Join(disabledList, ",")))
	}
	return out
}

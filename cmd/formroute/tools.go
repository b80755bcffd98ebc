package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"formroute/internal/config"
	"formroute/internal/gateway"
	"formroute/internal/issue"
	"formroute/internal/middleware"
	"formroute/internal/onboarding"
	"formroute/internal/preview"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var testRecipient string

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check the diagnostic log and mail permissions",
	Long: `Writes a line to the configured diagnostic sink and sends a test email.
Run it once after configuring credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gateway.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer gw.Close()

		out := cmd.OutOrStdout()
		failed := 0
		for _, s := range gw.SelfTest(cmd.Context(), testRecipient) {
			switch {
			case s.Skipped:
				fmt.Fprintf(out, "%s %s\n", warnStyle.Render("SKIP"), s.Name)
			case s.Err != nil:
				failed++
				fmt.Fprintf(out, "%s %s: %v\n", failStyle.Render("FAIL"), s.Name, s.Err)
			default:
				fmt.Fprintf(out, "%s %s\n", okStyle.Render("OK  "), s.Name)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d self test step(s) failed", failed)
		}
		return nil
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the issue routing table",
	RunE: func(cmd *cobra.Command, args []string) error {
		printRoutes(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Interactively preview how an issue report is routed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return preview.Run(issue.NewRouter(cfg.RoutingTable()), cfg.Formatter())
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := onboarding.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout())
		next := w.Run(cfg)

		disabled := map[string]bool{}
		for _, id := range strings.Split(os.Getenv(middleware.DisabledEnv), ",") {
			if id = strings.TrimSpace(id); id != "" {
				disabled[id] = true
			}
		}
		settings := w.NewMiddlewareMenu().Run(gateway.MiddlewareIDs(), disabled)

		if err := next.Validate(); err != nil {
			return err
		}
		if err := next.Save(configPath); err != nil {
			return err
		}
		if err := writeEnv(".env", settings); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s. Run \"formroute selftest --to <you>\" next.\n", configPath)
		return nil
	},
}

func writeEnv(path string, settings []onboarding.MiddlewareSetting) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		for _, l := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if l != "" {
				lines = append(lines, l)
			}
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	lines = onboarding.UpdateEnvFile(settings, lines)
	if len(lines) == 0 {
		return nil
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

func init() {
	selftestCmd.Flags().StringVar(&testRecipient, "to", "", "address that receives the test email")
}

func printRoutes(w io.Writer, c *config.Config) {
	rt := c.RoutingTable()
	labels := make([]string, 0, len(rt.Labels))
	for l := range rt.Labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ISSUE", "DEPARTMENT", "RECIPIENT", "CC")
	for _, l := range labels {
		dept := rt.Labels[l]
		cc := ""
		if dept == rt.CC.Department {
			cc = rt.CC.Address
		}
		t.Row(l, dept, rt.Recipients[dept], cc)
	}

	fmt.Fprintln(w, headerStyle.Render("Issue routing"))
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "Unlisted issues go to %s (%s)\n", rt.DefaultDepartment, rt.Recipients[rt.DefaultDepartment])
	for _, warning := range c.RoutingWarnings() {
		fmt.Fprintln(w, warnStyle.Render("warning: "+warning))
	}
}

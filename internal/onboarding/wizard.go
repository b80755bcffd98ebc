package onboarding

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"formroute/internal/config"
)

// Wizard guides the user through the initial configuration of formroute.
type Wizard struct {
	scanner *bufio.Scanner
	out     io.Writer
	stat    func(string) (os.FileInfo, error)
}

func NewWizard(in io.Reader, out io.Writer) *Wizard {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Wizard{scanner: bufio.NewScanner(in), out: out, stat: os.Stat}
}

// Run asks for every setting, starting from base, and returns the result.
func (w *Wizard) Run(base *config.Config) *config.Config {
	cfg := *base
	fmt.Fprintln(w.out, "\nWelcome to formroute setup.")
	fmt.Fprintln(w.out, strings.Repeat("-", 40))

	fmt.Fprintln(w.out, "\n[1/4] Delivery")
	cfg.Mail.Transport = w.choose("Mail transport", []string{"dryrun", "gmail"}, cfg.Mail.Transport)
	if cfg.Mail.Transport == "gmail" {
		cfg.Mail.SenderName = w.ask("Sender display name", cfg.Mail.SenderName)
		cfg.Mail.SenderAddress = w.ask("Sender address (empty: the account's own)", cfg.Mail.SenderAddress)
	}
	cfg.Calendar.Transport = w.choose("Calendar transport", []string{"dryrun", "google"}, cfg.Calendar.Transport)
	if cfg.Calendar.Transport == "google" {
		cfg.Calendar.CalendarID = w.ask("Calendar ID", cfg.Calendar.CalendarID)
	}

	fmt.Fprintln(w.out, "\n[2/4] Diagnostic log")
	cfg.Diagnostics.Sink = w.choose("Diagnostic sink", []string{"none", "sheets", "xlsx", "jsonl"}, cfg.Diagnostics.Sink)
	switch cfg.Diagnostics.Sink {
	case "sheets":
		cfg.Diagnostics.SpreadsheetID = w.ask("Spreadsheet ID", cfg.Diagnostics.SpreadsheetID)
		cfg.Diagnostics.Sheet = w.ask("Tab name", cfg.Diagnostics.Sheet)
	case "xlsx":
		cfg.Diagnostics.Path = w.ask("Workbook path", orDefault(cfg.Diagnostics.Path, "bin/diagnostics.xlsx"))
		cfg.Diagnostics.Sheet = w.ask("Sheet name", cfg.Diagnostics.Sheet)
	case "jsonl":
		cfg.Diagnostics.Path = w.ask("Log file path", orDefault(cfg.Diagnostics.Path, "bin/diagnostics.jsonl"))
	}

	fmt.Fprintln(w.out, "\n[3/4] Google credentials")
	if cfg.Mail.Transport == "gmail" || cfg.Calendar.Transport == "google" || cfg.Diagnostics.Sink == "sheets" {
		cfg.Google.CredentialsFile = w.ask("Credentials file", cfg.Google.CredentialsFile)
		if _, err := w.stat(cfg.Google.CredentialsFile); err != nil {
			fmt.Fprintf(w.out, "warning: %q not found. Add it before running serve.\n", cfg.Google.CredentialsFile)
		} else {
			fmt.Fprintf(w.out, "%q detected.\n", cfg.Google.CredentialsFile)
		}
		cfg.Google.Subject = w.ask("User to impersonate (empty: none)", cfg.Google.Subject)
	} else {
		fmt.Fprintln(w.out, "Not needed: no Google transport selected.")
	}

	fmt.Fprintln(w.out, "\n[4/4] Report")
	cfg.Report.ResponsesURL = w.ask("Response spreadsheet link for the email footer (empty: none)", cfg.Report.ResponsesURL)
	cfg.Report.TimeZone = w.ask("Time zone for report timestamps (empty: local)", cfg.Report.TimeZone)

	w.summarize(&cfg)
	return &cfg
}

func (w *Wizard) ask(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(w.out, "%s (default: %s): ", prompt, def)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}
	if !w.scanner.Scan() {
		return def
	}
	if v := strings.TrimSpace(w.scanner.Text()); v != "" {
		return v
	}
	return def
}

func (w *Wizard) choose(prompt string, options []string, def string) string {
	fmt.Fprintf(w.out, "%s:\n", prompt)
	defIdx := 1
	for i, o := range options {
		fmt.Fprintf(w.out, "%d) %s\n", i+1, o)
		if o == def {
			defIdx = i + 1
		}
	}
	for {
		fmt.Fprintf(w.out, "Choice (default: %d): ", defIdx)
		if !w.scanner.Scan() {
			return options[defIdx-1]
		}
		input := strings.TrimSpace(w.scanner.Text())
		if input == "" {
			return options[defIdx-1]
		}
		for i, o := range options {
			if input == fmt.Sprint(i+1) || input == o {
				return o
			}
		}
		fmt.Fprintf(w.out, "Invalid choice. Please select 1-%d.\n", len(options))
	}
}

func (w *Wizard) summarize(cfg *config.Config) {
	fmt.Fprintln(w.out, "\n"+strings.Repeat("=", 40))
	fmt.Fprintln(w.out, "Setup Summary:")
	fmt.Fprintf(w.out, "Mail:        %s\n", cfg.Mail.Transport)
	fmt.Fprintf(w.out, "Calendar:    %s\n", cfg.Calendar.Transport)
	fmt.Fprintf(w.out, "Diagnostics: %s\n", cfg.Diagnostics.Sink)
	fmt.Fprintln(w.out, strings.Repeat("=", 40))
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
